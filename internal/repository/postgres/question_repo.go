package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByIDs возвращает вопросы по списку ID, порядок не гарантируется
func (r *QuestionRepo) GetByIDs(ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []entity.Question
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Update обновляет информацию о вопросе
func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Save(question).Error
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Question{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CreateBatch сохраняет пачку вопросов одной транзакцией.
// Либо импортируются все строки пачки, либо ни одной.
func (r *QuestionRepo) CreateBatch(questions []*entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, q := range questions {
			if err := tx.Create(q).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetBank возвращает банк вопросов по ID
func (r *QuestionRepo) GetBank(id uint) (*entity.QuestionBank, error) {
	var bank entity.QuestionBank
	err := r.db.First(&bank, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &bank, nil
}

// GetChapter возвращает главу банка вопросов по ID
func (r *QuestionRepo) GetChapter(id uint) (*entity.Chapter, error) {
	var chapter entity.Chapter
	err := r.db.First(&chapter, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &chapter, nil
}

// GetChapterByName ищет главу по имени внутри банка
func (r *QuestionRepo) GetChapterByName(bankID uint, name string) (*entity.Chapter, error) {
	var chapter entity.Chapter
	err := r.db.Where("question_bank_id = ? AND name = ?", bankID, name).
		First(&chapter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &chapter, nil
}

// CreateChapter создает главу банка вопросов
func (r *QuestionRepo) CreateChapter(chapter *entity.Chapter) error {
	return r.db.Create(chapter).Error
}

// ListByChapter возвращает вопросы главы
func (r *QuestionRepo) ListByChapter(chapterID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("chapter_id = ?", chapterID).
		Order("id").
		Find(&questions).Error
	return questions, err
}

// CountByRule возвращает количество вопросов заданного типа в указанных главах
func (r *QuestionRepo) CountByRule(chapterIDs []uint, questionType string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).
		Where("chapter_id IN ? AND question_type = ?", chapterIDs, questionType).
		Count(&count).Error
	return count, err
}

// GetRandomByRule возвращает случайные вопросы заданного типа из указанных глав.
// ORDER BY RANDOM() достаточно: выборка идет внутри глав, а не по всей таблице.
func (r *QuestionRepo) GetRandomByRule(chapterIDs []uint, questionType string, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("chapter_id IN ? AND question_type = ?", chapterIDs, questionType).
		Order("RANDOM()").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// ReferenceCount возвращает число ссылок на вопрос из билетов экзаменов
// и материализованных билетов попыток. Ненулевое значение блокирует удаление.
func (r *QuestionRepo) ReferenceCount(questionID uint) (int64, error) {
	var examRefs int64
	if err := r.db.Model(&entity.ExamQuestion{}).
		Where("question_id = ?", questionID).
		Count(&examRefs).Error; err != nil {
		return 0, err
	}

	var paperRefs int64
	if err := r.db.Model(&entity.ExamAttemptPaper{}).
		Where("question_id = ?", questionID).
		Count(&paperRefs).Error; err != nil {
		return 0, err
	}

	return examRefs + paperRefs, nil
}
