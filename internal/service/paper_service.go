package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	apperrors "github.com/xinghusp/online-examsys-backend/internal/pkg/errors"
)

// Состав материализованного билета неизменен, TTL нужен только чтобы
// ключи завершенных попыток не жили вечно
const paperCacheTTL = time.Hour

// PaperService собирает билеты экзаменов: фиксированный единый билет
// при публикации (manual проверяется, random_unified генерируется)
// и индивидуальный билет на попытку (random_individual).
type PaperService struct {
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	cacheRepo    repository.CacheRepository // nil — кеш выключен
}

// NewPaperService создает новый сервис билетов
func NewPaperService(
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	cacheRepo repository.CacheRepository,
) *PaperService {
	return &PaperService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		cacheRepo:    cacheRepo,
	}
}

// PaperRow — строка билета в порядке показа, независимо от режима генерации
type PaperRow struct {
	QuestionID uint    `json:"question_id"`
	Score      float64 `json:"score"`
	OrderIndex int     `json:"order_index"`
}

// ValidateRules проверяет правила случайного отбора против содержимого
// банка: каждая глава существует, вопросов нужного типа хватает под Count.
// Вызывается при создании экзамена и повторно при публикации — банк
// между этими моментами мог похудеть.
func (s *PaperService) ValidateRules(rules entity.RandomRuleList) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: random paper mode requires at least one rule", apperrors.ErrInvalidExamConfig)
	}
	for i, rule := range rules {
		if rule.Count <= 0 {
			return fmt.Errorf("%w: rule #%d count must be positive", apperrors.ErrInvalidExamConfig, i)
		}
		if rule.ScorePerQuestion <= 0 {
			return fmt.Errorf("%w: rule #%d score_per_question must be positive", apperrors.ErrInvalidExamConfig, i)
		}
		if len(rule.ChapterIDs) == 0 {
			return fmt.Errorf("%w: rule #%d has no chapters", apperrors.ErrInvalidExamConfig, i)
		}
		if rule.QuestionType != "" && !entity.IsValidQuestionType(rule.QuestionType) {
			return fmt.Errorf("%w: rule #%d has unknown question type %q", apperrors.ErrInvalidExamConfig, i, rule.QuestionType)
		}
		for _, chapterID := range rule.ChapterIDs {
			if _, err := s.questionRepo.GetChapter(chapterID); err != nil {
				return fmt.Errorf("rule #%d chapter #%d: %w", i, chapterID, err)
			}
		}
		available, err := s.questionRepo.CountByRule(rule.ChapterIDs, rule.QuestionType)
		if err != nil {
			return fmt.Errorf("failed to count questions for rule #%d: %w", i, err)
		}
		if available < int64(rule.Count) {
			return fmt.Errorf("%w: rule #%d wants %d questions, bank has %d",
				apperrors.ErrInsufficientQuestions, i, rule.Count, available)
		}
	}
	return nil
}

// drawByRules вытягивает вопросы по правилам. Каждое правило тянет
// независимо; повторы между правилами отбрасываются, недобор после
// дедупликации считается нехваткой вопросов.
func (s *PaperService) drawByRules(rules entity.RandomRuleList) ([]PaperRow, error) {
	seen := make(map[uint]bool)
	var rows []PaperRow
	orderIndex := 0

	for i, rule := range rules {
		// Тянем с запасом на случай пересечения глав между правилами
		questions, err := s.questionRepo.GetRandomByRule(rule.ChapterIDs, rule.QuestionType, rule.Count+len(seen))
		if err != nil {
			return nil, fmt.Errorf("failed to draw questions for rule #%d: %w", i, err)
		}
		taken := 0
		for _, q := range questions {
			if taken == rule.Count {
				break
			}
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			rows = append(rows, PaperRow{
				QuestionID: q.ID,
				Score:      rule.ScorePerQuestion,
				OrderIndex: orderIndex,
			})
			orderIndex++
			taken++
		}
		if taken < rule.Count {
			return nil, fmt.Errorf("%w: rule #%d drew %d of %d questions",
				apperrors.ErrInsufficientQuestions, i, taken, rule.Count)
		}
	}
	return rows, nil
}

// GenerateUnifiedPaper генерирует единый билет для random_unified экзамена
// и сохраняет его строками ExamQuestion. Вызывается один раз при публикации.
func (s *PaperService) GenerateUnifiedPaper(exam *entity.Exam) error {
	if exam.PaperGenerationMode != entity.PaperModeRandomUnified {
		return fmt.Errorf("%w: exam #%d is not random_unified", apperrors.ErrInvalidExamConfig, exam.ID)
	}
	existing, err := s.examRepo.GetExamQuestions(exam.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		// Билет уже сгенерирован, повторная публикация его не трогает
		return nil
	}
	if err := s.ValidateRules(exam.RandomRules); err != nil {
		return err
	}
	rows, err := s.drawByRules(exam.RandomRules)
	if err != nil {
		return err
	}
	examQuestions := make([]entity.ExamQuestion, len(rows))
	for i, row := range rows {
		examQuestions[i] = entity.ExamQuestion{
			ExamID:     exam.ID,
			QuestionID: row.QuestionID,
			Score:      row.Score,
			OrderIndex: row.OrderIndex,
		}
	}
	exam.Questions = examQuestions
	if err := s.examRepo.Update(exam); err != nil {
		return fmt.Errorf("failed to save unified paper for exam #%d: %w", exam.ID, err)
	}
	log.Printf("[PaperService] Сгенерирован единый билет экзамена #%d: %d вопросов", exam.ID, len(rows))
	return nil
}

// PaperForAttempt возвращает билет попытки в порядке показа.
// Для фиксированных режимов это строки ExamQuestion; для random_individual
// билет материализуется при первом обращении и далее перечитывается.
// Повторный вызов под гонкой (два воркера стартуют одну попытку)
// идемпотентен: проигравший вставку перечитывает сохраненные строки.
func (s *PaperService) PaperForAttempt(exam *entity.Exam, attemptID uint) ([]PaperRow, error) {
	if exam.IsFixedPaper() {
		examQuestions, err := s.examRepo.GetExamQuestions(exam.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]PaperRow, len(examQuestions))
		for i, eq := range examQuestions {
			rows[i] = PaperRow{QuestionID: eq.QuestionID, Score: eq.Score, OrderIndex: eq.OrderIndex}
		}
		return rows, nil
	}

	// random_individual: горячий путь — закешированный билет,
	// дальше уже материализованные строки из БД
	if cached, ok := s.cachedPaper(attemptID); ok {
		return cached, nil
	}
	saved, err := s.attemptRepo.GetPaper(attemptID)
	if err != nil {
		return nil, err
	}
	if len(saved) > 0 {
		rows := paperRowsFromAttempt(saved)
		s.cachePaper(attemptID, rows)
		return rows, nil
	}

	drawn, err := s.drawByRules(exam.RandomRules)
	if err != nil {
		return nil, err
	}
	paperRows := make([]entity.ExamAttemptPaper, len(drawn))
	for i, row := range drawn {
		paperRows[i] = entity.ExamAttemptPaper{
			AttemptID:  attemptID,
			QuestionID: row.QuestionID,
			Score:      row.Score,
			OrderIndex: row.OrderIndex,
		}
	}
	if err := s.attemptRepo.SavePaper(paperRows); err != nil {
		if errors.Is(err, repository.ErrPaperExists) {
			// Проиграли гонку генерации — читаем победивший билет
			saved, err := s.attemptRepo.GetPaper(attemptID)
			if err != nil {
				return nil, err
			}
			return paperRowsFromAttempt(saved), nil
		}
		return nil, err
	}
	log.Printf("[PaperService] Сгенерирован индивидуальный билет попытки #%d: %d вопросов", attemptID, len(drawn))
	s.cachePaper(attemptID, drawn)
	return drawn, nil
}

func paperCacheKey(attemptID uint) string {
	return fmt.Sprintf("paper:attempt:%d", attemptID)
}

// cachedPaper читает билет попытки из кеша; промах и ошибки Redis
// равнозначны — билет перечитается из БД
func (s *PaperService) cachedPaper(attemptID uint) ([]PaperRow, bool) {
	if s.cacheRepo == nil {
		return nil, false
	}
	var rows []PaperRow
	if err := s.cacheRepo.GetJSON(paperCacheKey(attemptID), &rows); err != nil || len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

// cachePaper сохраняет билет попытки в кеш, ошибки только логируются
func (s *PaperService) cachePaper(attemptID uint, rows []PaperRow) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.SetJSON(paperCacheKey(attemptID), rows, paperCacheTTL); err != nil {
		log.Printf("[PaperService] Не удалось закешировать билет попытки #%d: %v", attemptID, err)
	}
}

// InvalidatePaperCache удаляет закешированный билет попытки.
// Вызывается при выходе попытки из in_progress: билет перестает быть горячим.
func (s *PaperService) InvalidatePaperCache(attemptID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(paperCacheKey(attemptID)); err != nil {
		log.Printf("[PaperService] Не удалось сбросить кеш билета попытки #%d: %v", attemptID, err)
	}
}

func paperRowsFromAttempt(saved []entity.ExamAttemptPaper) []PaperRow {
	rows := make([]PaperRow, len(saved))
	for i, p := range saved {
		rows[i] = PaperRow{QuestionID: p.QuestionID, Score: p.Score, OrderIndex: p.OrderIndex}
	}
	return rows
}

// MaxScore возвращает максимально возможный балл экзамена
func (s *PaperService) MaxScore(exam *entity.Exam) (float64, error) {
	if exam.IsFixedPaper() {
		return s.examRepo.SumPaperScore(exam.ID)
	}
	return exam.RandomRules.TotalScore(), nil
}
