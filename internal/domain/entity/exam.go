package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Режимы формирования билета. Фиксируются при создании экзамена.
const (
	PaperModeManual           = "manual"            // Билет собран вручную из ExamQuestion
	PaperModeRandomUnified    = "random_unified"    // Случайный, но единый для всех билет в ExamQuestion
	PaperModeRandomIndividual = "random_individual" // Свой случайный билет на каждую попытку
)

// Статусы экзамена
const (
	ExamStatusDraft     = "draft"
	ExamStatusPublished = "published"
	ExamStatusOngoing   = "ongoing"
	ExamStatusFinished  = "finished"
	ExamStatusArchived  = "archived"
)

// RandomRule — одно правило случайного отбора вопросов:
// сколько вопросов, из каких глав, какого типа и по какому баллу.
type RandomRule struct {
	ChapterIDs       []uint  `json:"chapter_ids"`
	QuestionType     string  `json:"question_type,omitempty"` // Пусто = любой тип
	Count            int     `json:"count"`
	ScorePerQuestion float64 `json:"score_per_question"`
}

// RandomRuleList - пользовательский тип для работы с JSONB
type RandomRuleList []RandomRule

// Scan реализует интерфейс sql.Scanner для RandomRuleList
func (r *RandomRuleList) Scan(value interface{}) error {
	if value == nil {
		*r = RandomRuleList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*r = RandomRuleList{}
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// Value реализует интерфейс driver.Valuer для RandomRuleList
func (r RandomRuleList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// TotalScore возвращает максимально возможный балл по правилам
func (r RandomRuleList) TotalScore() float64 {
	var total float64
	for _, rule := range r {
		total += float64(rule.Count) * rule.ScorePerQuestion
	}
	return total
}

// Exam представляет экзамен
type Exam struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"size:255;not null" json:"name"`
	StartTime           time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime             time.Time      `gorm:"not null;index" json:"end_time"`
	DurationMinutes     int            `gorm:"not null" json:"duration_minutes"`
	ShowScoreAfterExam  bool           `gorm:"not null;default:true" json:"show_score_after_exam"`
	ShowAnswersAfterExam bool          `gorm:"not null;default:false" json:"show_answers_after_exam"`
	Rules               string         `gorm:"type:text" json:"rules,omitempty"` // Инструкции для сдающих (rich text)
	PaperGenerationMode string         `gorm:"size:20;not null" json:"paper_generation_mode"`
	RandomRules         RandomRuleList `gorm:"type:jsonb" json:"random_rules,omitempty"` // Только для random_* режимов
	Status              string         `gorm:"size:20;not null;default:'draft';index" json:"status"`
	CreatorID           *uint          `gorm:"index" json:"creator_id,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	Questions    []ExamQuestion    `gorm:"foreignKey:ExamID" json:"questions,omitempty"`
	Participants []ExamParticipant `gorm:"foreignKey:ExamID" json:"participants,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Exam) TableName() string {
	return "exams"
}

// IsFixedPaper сообщает, что билет экзамена одинаков для всех попыток
func (e *Exam) IsFixedPaper() bool {
	return e.PaperGenerationMode == PaperModeManual || e.PaperGenerationMode == PaperModeRandomUnified
}

// IsStartable проверяет, можно ли начинать попытку по статусу экзамена
func (e *Exam) IsStartable() bool {
	return e.Status == ExamStatusPublished || e.Status == ExamStatusOngoing
}

// WindowContains проверяет, что момент now внутри окна экзамена
func (e *Exam) WindowContains(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}

// ExamQuestion — строка фиксированного билета экзамена (manual/random_unified).
// order_index уникален в пределах экзамена, вопрос входит не более одного раза.
type ExamQuestion struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ExamID     uint    `gorm:"not null;index;uniqueIndex:uk_exam_question,priority:1;uniqueIndex:uk_exam_order,priority:1" json:"exam_id"`
	QuestionID uint    `gorm:"not null;index;uniqueIndex:uk_exam_question,priority:2" json:"question_id"`
	Score      float64 `gorm:"type:decimal(5,2);not null" json:"score"`
	OrderIndex int     `gorm:"not null;uniqueIndex:uk_exam_order,priority:2" json:"order_index"`
}

// TableName определяет имя таблицы для GORM
func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// ExamParticipant назначает экзамен пользователю или группе.
// Хотя бы одно из полей UserID/GroupID должно быть задано (CHECK в схеме).
type ExamParticipant struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	ExamID  uint  `gorm:"not null;index" json:"exam_id"`
	UserID  *uint `gorm:"index" json:"user_id,omitempty"`
	GroupID *uint `gorm:"index" json:"group_id,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (ExamParticipant) TableName() string {
	return "exam_participants"
}
