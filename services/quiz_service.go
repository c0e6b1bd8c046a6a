package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"quizdeck/models"
	"quizdeck/pkg/apperr"
	"quizdeck/validation"
)

type QuizService struct {
	db   *gorm.DB
	mail *MailService
}

func NewQuizService(db *gorm.DB, mail *MailService) *QuizService {
	return &QuizService{db: db, mail: mail}
}

type QuestionRequest struct {
	Text         string   `json:"text" validate:"required,min=1,max=500"`
	Options      []string `json:"options" validate:"required,min=2,max=6,dive,required,min=1,max=200"`
	CorrectIndex *int     `json:"correct_index" validate:"required,gte=0"`
}

type CreateQuizRequest struct {
	Title       string            `json:"title" validate:"required,min=3,max=100"`
	Description string            `json:"description" validate:"max=500"`
	IsPublic    *bool             `json:"is_public"`
	Questions   []QuestionRequest `json:"questions" validate:"required,min=1,max=100,dive"`
}

func (r *CreateQuizRequest) Normalize() {
	validation.TrimPtr(&r.Title)
	validation.TrimPtr(&r.Description)
	normalizeQuestions(r.Questions)
}

func (r *CreateQuizRequest) Violations() []apperr.FieldViolation {
	return append(validation.Struct(r), questionViolations(r.Questions)...)
}

type UpdateQuizRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string           `json:"description" validate:"omitempty,max=500"`
	IsPublic    *bool             `json:"is_public"`
	Questions   []QuestionRequest `json:"questions" validate:"omitempty,min=1,max=100,dive"`
}

func (r *UpdateQuizRequest) Normalize() {
	validation.TrimPtr(r.Title)
	validation.TrimPtr(r.Description)
	normalizeQuestions(r.Questions)
}

func (r *UpdateQuizRequest) Violations() []apperr.FieldViolation {
	if r.Title == nil && r.Description == nil && r.IsPublic == nil && r.Questions == nil {
		return []apperr.FieldViolation{{Field: "body", Message: "at least one field must be provided"}}
	}
	return append(validation.Struct(r), questionViolations(r.Questions)...)
}

func normalizeQuestions(questions []QuestionRequest) {
	for i := range questions {
		validation.TrimPtr(&questions[i].Text)
		for j := range questions[i].Options {
			validation.TrimPtr(&questions[i].Options[j])
		}
	}
}

// questionViolations covers the cross-field invariant the tag rules cannot
// express: the correct-option index must address an existing option.
func questionViolations(questions []QuestionRequest) []apperr.FieldViolation {
	var out []apperr.FieldViolation
	for i, q := range questions {
		if q.CorrectIndex != nil && *q.CorrectIndex >= len(q.Options) {
			out = append(out, apperr.FieldViolation{
				Field:   fmt.Sprintf("questions[%d].correct_index", i),
				Message: "must be less than the number of options",
			})
		}
	}
	return out
}

// Authorization predicates. Pure functions over explicit values; the caller
// may be nil for anonymous requests.

func canModify(caller *models.User, ownerID uuid.UUID) bool {
	return caller != nil && (caller.ID == ownerID || caller.IsAdmin())
}

func canView(caller *models.User, quiz *models.Quiz) bool {
	return quiz.IsPublic || canModify(caller, quiz.UserID)
}

// QuizDetail is a quiz read projection: the full quiz plus an owner summary
// in place of the raw owner record.
type QuizDetail struct {
	*models.Quiz
	Owner models.OwnerSummary `json:"owner"`
}

func detail(quiz *models.Quiz) *QuizDetail {
	return &QuizDetail{
		Quiz:  quiz,
		Owner: models.OwnerSummary{ID: quiz.User.ID, Username: quiz.User.Username},
	}
}

func (s *QuizService) Create(ctx context.Context, owner *models.User, req *CreateQuizRequest) (*QuizDetail, error) {
	quiz := models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		UserID:      owner.ID,
	}
	if req.IsPublic != nil {
		quiz.IsPublic = *req.IsPublic
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quiz).Error; err != nil {
			return err
		}
		return insertQuestions(tx, quiz.ID, req.Questions)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to create quiz", errors.Wrap(err, "quizService.Create.tx"))
	}

	s.mail.SendQuizCreated(owner.Email, owner.Username, quiz.Title)

	loaded, err := s.load(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	return detail(loaded), nil
}

func (s *QuizService) List(ctx context.Context, caller *models.User) ([]models.Quiz, error) {
	q := s.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Preload("User").
		Order("created_at DESC")
	if !caller.IsAdmin() {
		q = q.Where("user_id = ?", caller.ID)
	}

	var quizzes []models.Quiz
	if err := q.Find(&quizzes).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to list quizzes", errors.Wrap(err, "quizService.List.find"))
	}
	return quizzes, nil
}

func (s *QuizService) Get(ctx context.Context, caller *models.User, quizID uuid.UUID) (*QuizDetail, error) {
	quiz, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, quiz) {
		return nil, apperr.Forbidden("you do not have access to this quiz")
	}
	return detail(quiz), nil
}

func (s *QuizService) Update(ctx context.Context, caller *models.User, quizID uuid.UUID, req *UpdateQuizRequest) (*QuizDetail, error) {
	quiz, err := s.find(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !canModify(caller, quiz.UserID) {
		return nil, apperr.Forbidden("only the owner or an admin may modify this quiz")
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.IsPublic != nil {
		quiz.IsPublic = *req.IsPublic
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(quiz).Error; err != nil {
			return err
		}
		if req.Questions == nil {
			return nil
		}
		// A supplied question list replaces the stored one wholesale.
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return insertQuestions(tx, quiz.ID, req.Questions)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to update quiz", errors.Wrap(err, "quizService.Update.tx"))
	}

	loaded, err := s.load(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	return detail(loaded), nil
}

func (s *QuizService) Delete(ctx context.Context, caller *models.User, quizID uuid.UUID) error {
	quiz, err := s.find(ctx, quizID)
	if err != nil {
		return err
	}
	if !canModify(caller, quiz.UserID) {
		return apperr.Forbidden("only the owner or an admin may delete this quiz")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Quiz{}, "id = ?", quiz.ID).Error
	})
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed to delete quiz", errors.Wrap(err, "quizService.Delete.tx"))
	}
	return nil
}

// PlayQuestion is the projection served to the play flow. The correct index
// is included: scoring happens on the client against this payload.
type PlayQuestion struct {
	ID           uuid.UUID `json:"id"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
}

type PlayQuiz struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []PlayQuestion `json:"questions"`
}

// Play returns the play projection for a quiz. The caller may be nil
// (anonymous), in which case only public quizzes are playable.
func (s *QuizService) Play(ctx context.Context, caller *models.User, quizID uuid.UUID) (*PlayQuiz, error) {
	quiz, err := s.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, quiz) {
		return nil, apperr.Forbidden("this quiz is private")
	}

	out := &PlayQuiz{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   make([]PlayQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		out.Questions = append(out.Questions, PlayQuestion{
			ID:           q.ID,
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		})
	}
	return out, nil
}

// QuizSummary is the public listing projection: no questions, just a count.
type QuizSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *QuizService) ListPublic(ctx context.Context) ([]QuizSummary, error) {
	var summaries []QuizSummary
	err := s.db.WithContext(ctx).Model(&models.Quiz{}).
		Select("quizzes.id, quizzes.title, quizzes.description, quizzes.created_at, count(questions.id) as question_count").
		Joins("LEFT JOIN questions ON questions.quiz_id = quizzes.id").
		Where("quizzes.is_public = ?", true).
		Group("quizzes.id").
		Order("quizzes.created_at DESC").
		Scan(&summaries).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to list public quizzes", errors.Wrap(err, "quizService.ListPublic.scan"))
	}
	if summaries == nil {
		summaries = []QuizSummary{}
	}
	return summaries, nil
}

// find fetches the bare quiz row; a missing id reports not-found before any
// authorization decision is made.
func (s *QuizService) find(ctx context.Context, quizID uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.WithContext(ctx).First(&quiz, "id = ?", quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quiz not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load quiz", errors.Wrap(err, "quizService.find.first"))
	}
	return &quiz, nil
}

// load fetches a quiz with its owner and ordered questions.
func (s *QuizService) load(ctx context.Context, quizID uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Preload("User").
		First(&quiz, "id = ?", quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("quiz not found")
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load quiz", errors.Wrap(err, "quizService.load.first"))
	}
	return &quiz, nil
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("questions.position")
}

func insertQuestions(tx *gorm.DB, quizID uuid.UUID, questions []QuestionRequest) error {
	for i, q := range questions {
		question := models.Question{
			QuizID:       quizID,
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: *q.CorrectIndex,
			Position:     i,
		}
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
	}
	return nil
}
