package repository

import (
	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	Create(question *entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	// GetByIDs возвращает вопросы по списку id, порядок не гарантируется
	GetByIDs(ids []uint) ([]entity.Question, error)
	Update(question *entity.Question) error
	Delete(id uint) error
	// CreateBatch сохраняет пачку вопросов одной транзакцией
	CreateBatch(questions []*entity.Question) error
	GetBank(id uint) (*entity.QuestionBank, error)
	GetChapter(id uint) (*entity.Chapter, error)
	// GetChapterByName ищет главу по имени внутри банка
	GetChapterByName(bankID uint, name string) (*entity.Chapter, error)
	CreateChapter(chapter *entity.Chapter) error
	ListByChapter(chapterID uint) ([]entity.Question, error)

	// CountByRule возвращает число вопросов, подходящих под правило отбора
	// (главы + опциональный фильтр по типу).
	CountByRule(chapterIDs []uint, questionType string) (int64, error)
	// GetRandomByRule возвращает случайную выборку вопросов под правило отбора
	GetRandomByRule(chapterIDs []uint, questionType string, limit int) ([]entity.Question, error)

	// ReferenceCount возвращает число ссылок на вопрос из билетов и ответов.
	// Вопрос с ненулевым счетчиком удалять нельзя.
	ReferenceCount(questionID uint) (int64, error)
}
