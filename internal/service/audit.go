package service

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/xinghusp/online-examsys-backend/internal/domain/entity"
	"github.com/xinghusp/online-examsys-backend/internal/domain/repository"
	"github.com/xinghusp/online-examsys-backend/pkg/clock"
)

// recordAudit пишет событие в журнал аудита. Сбой журнала не валит
// основную операцию: запись с ошибкой только логируется.
func recordAudit(
	auditRepo repository.AuditRepository,
	clk clock.Clock,
	userID *uint,
	ipAddress string,
	action string,
	targetType string,
	targetID uint,
	details interface{},
) {
	if auditRepo == nil {
		return
	}
	var payload entity.RawJSON
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			log.Printf("[Audit] Не удалось сериализовать детали события %s: %v", action, err)
		} else {
			payload = entity.RawJSON(data)
		}
	}
	entry := &entity.AuditLog{
		EventID:    uuid.NewString(),
		UserID:     userID,
		IPAddress:  ipAddress,
		Action:     action,
		TargetType: targetType,
		TargetID:   strconv.FormatUint(uint64(targetID), 10),
		Details:    payload,
		Timestamp:  clk.Now(),
	}
	if err := auditRepo.Save(entry); err != nil {
		log.Printf("[Audit] Не удалось записать событие %s по %s #%d: %v", action, targetType, targetID, err)
	}
}
