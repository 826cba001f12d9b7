package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Типы вопросов (закрытый набор, Grading Engine диспетчеризуется по нему)
const (
	QuestionTypeSingleChoice   = "single_choice"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeFillInBlank    = "fill_in_blank"
	QuestionTypeShortAnswer    = "short_answer"
)

// IsValidQuestionType проверяет, входит ли тип в закрытый набор
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice,
		QuestionTypeFillInBlank, QuestionTypeShortAnswer:
		return true
	}
	return false
}

// QuestionOption — один вариант ответа выборного вопроса
type QuestionOption struct {
	Label string `json:"label"` // Идентификатор варианта ("A", "B", ...)
	Text  string `json:"text"`  // Текст варианта (может быть rich text/HTML)
}

// OptionList - пользовательский тип для работы с JSONB
type OptionList []QuestionOption

// Scan реализует интерфейс sql.Scanner для OptionList
// Используется GORM для чтения JSONB данных из базы
func (o *OptionList) Scan(value interface{}) error {
	if value == nil {
		*o = OptionList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*o = OptionList{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для OptionList
func (o OptionList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Labels возвращает метки всех вариантов
func (o OptionList) Labels() []string {
	labels := make([]string, 0, len(o))
	for _, opt := range o {
		labels = append(labels, opt.Label)
	}
	return labels
}

// HasLabel проверяет, есть ли вариант с такой меткой
func (o OptionList) HasLabel(label string) bool {
	for _, opt := range o {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// AnswerKey — эталонный ответ вопроса. Тегированный вариант вместо
// нетипизированного блоба: какие поля заполнены, определяется типом вопроса.
// single/multiple choice -> Labels, fill_in_blank -> Texts (допустимые
// написания), short_answer -> Model (образец для проверяющего).
type AnswerKey struct {
	Labels []string `json:"labels,omitempty"`
	Texts  []string `json:"texts,omitempty"`
	Model  string   `json:"model,omitempty"`
}

// Scan реализует интерфейс sql.Scanner для AnswerKey
func (k *AnswerKey) Scan(value interface{}) error {
	if value == nil {
		*k = AnswerKey{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*k = AnswerKey{}
		return nil
	}
	return json.Unmarshal(bytes, k)
}

// Value реализует интерфейс driver.Valuer для AnswerKey
func (k AnswerKey) Value() (driver.Value, error) {
	return json.Marshal(k)
}

// Политики оценивания multiple_choice
const (
	MultiPolicyExact   = "exact"   // Полный балл только за точное совпадение множеств
	MultiPolicyPartial = "partial" // Частичный балл по процентам за выбор
)

// Режимы сравнения fill_in_blank
const (
	MatchModeExact           = "exact"
	MatchModeCaseInsensitive = "case_insensitive"
	MatchModeContains        = "contains"
)

// GradingStrategy — типо-специфичные правила оценивания вопроса.
// Для multiple_choice: Policy + проценты; для fill_in_blank: MatchMode.
// Пустая стратегия означает поведение по умолчанию (exact).
type GradingStrategy struct {
	// multiple_choice
	Policy              string  `json:"policy,omitempty"`
	PercentPerCorrect   float64 `json:"percent_per_correct,omitempty"`   // Доля балла за каждый верный выбор (0..1)
	PenaltyPerIncorrect float64 `json:"penalty_per_incorrect,omitempty"` // Штрафная доля за каждый неверный выбор (0..1)

	// fill_in_blank
	MatchMode string `json:"match_mode,omitempty"`
}

// Scan реализует интерфейс sql.Scanner для GradingStrategy
func (s *GradingStrategy) Scan(value interface{}) error {
	if value == nil {
		*s = GradingStrategy{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*s = GradingStrategy{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value реализует интерфейс driver.Valuer для GradingStrategy
func (s GradingStrategy) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// IsZero сообщает, что стратегия не задана (применяются умолчания типа)
func (s GradingStrategy) IsZero() bool {
	return s.Policy == "" && s.PercentPerCorrect == 0 && s.PenaltyPerIncorrect == 0 && s.MatchMode == ""
}

// QuestionBank представляет банк вопросов
type QuestionBank struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatorID   *uint     `gorm:"index" json:"creator_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (QuestionBank) TableName() string {
	return "question_banks"
}

// Chapter представляет главу банка вопросов
type Chapter struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	QuestionBankID uint      `gorm:"not null;index" json:"question_bank_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	OrderIndex     int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Chapter) TableName() string {
	return "chapters"
}

// Question представляет вопрос в банке.
// Эталонный ответ и стратегия скрыты от клиента.
type Question struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ChapterID       uint            `gorm:"not null;index" json:"chapter_id"`
	QuestionType    string          `gorm:"size:20;not null;index" json:"question_type"`
	Stem            string          `gorm:"type:text;not null" json:"stem"`
	Score           float64         `gorm:"type:decimal(5,2);not null;default:1" json:"score"`
	Options         OptionList      `gorm:"type:jsonb" json:"options,omitempty"`
	Answer          AnswerKey       `gorm:"type:jsonb" json:"-"`
	GradingStrategy GradingStrategy `gorm:"type:jsonb" json:"-"`
	Explanation     string          `gorm:"type:text" json:"explanation,omitempty"`
	CreatorID       *uint           `gorm:"index" json:"creator_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsAutoGradable сообщает, оценивается ли тип вопроса автоматически
func (q *Question) IsAutoGradable() bool {
	return q.QuestionType != QuestionTypeShortAnswer
}
