package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RawJSON хранит сырой JSON-пейлоад как есть.
// Используется для user_answer: парсинг по форме типа вопроса делает
// Grading Engine, хранилище содержимое не интерпретирует.
type RawJSON json.RawMessage

// Scan реализует интерфейс sql.Scanner для RawJSON
func (j *RawJSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	*j = append((*j)[0:0], bytes...)
	return nil
}

// Value реализует интерфейс driver.Valuer для RawJSON
func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON возвращает содержимое как есть
func (j RawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON сохраняет содержимое как есть
func (j *RawJSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}

// GradingSnapshot — слепок входных данных оценивания, сохраняется рядом
// с ответом в момент выставления балла. Последующее редактирование вопроса
// не меняет уже отграженную историю: пересчет (если понадобится) идет по
// слепку, а не по текущей версии вопроса.
type GradingSnapshot struct {
	QuestionType string          `json:"question_type"`
	MaxScore     float64         `json:"max_score"`
	Answer       AnswerKey       `json:"answer"`
	Strategy     GradingStrategy `json:"strategy"`
}

// Scan реализует интерфейс sql.Scanner для GradingSnapshot
func (s *GradingSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = GradingSnapshot{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*s = GradingSnapshot{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value реализует интерфейс driver.Valuer для GradingSnapshot
func (s GradingSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Answer — ответ пользователя на один вопрос в рамках одной попытки.
// На пару (attempt, question) существует не более одной строки: первое
// сохранение создает запись, повторные при in_progress перезаписывают ее,
// после выхода попытки из in_progress строка заморожена.
type Answer struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	AttemptID       uint             `gorm:"not null;index;uniqueIndex:uk_answer_attempt_question,priority:1" json:"attempt_id"`
	QuestionID      uint             `gorm:"not null;index;uniqueIndex:uk_answer_attempt_question,priority:2" json:"question_id"`
	UserAnswer      RawJSON          `gorm:"type:jsonb" json:"user_answer,omitempty"`
	Score           *float64         `gorm:"type:decimal(5,2)" json:"score,omitempty"`
	IsCorrect       *bool            `json:"is_correct,omitempty"`
	Malformed       bool             `gorm:"not null;default:false" json:"malformed"` // Пейлоад не распарсился по форме типа, ждет проверяющего
	GradedAgainst   *GradingSnapshot `gorm:"type:jsonb" json:"-"`
	GraderID        *uint            `gorm:"index" json:"grader_id,omitempty"`
	GradingComments string           `gorm:"type:text" json:"grading_comments,omitempty"`
	GradedAt        *time.Time       `json:"graded_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}

// IsScored сообщает, что у ответа выставлен балл
func (a *Answer) IsScored() bool {
	return a.Score != nil
}

// SubmittedAnswer — распарсенная форма пользовательского ответа.
// single_choice: Selected из одного элемента; multiple_choice: Selected;
// fill_in_blank и short_answer: Text.
type SubmittedAnswer struct {
	Selected []string `json:"selected,omitempty"`
	Text     string   `json:"text,omitempty"`
}
