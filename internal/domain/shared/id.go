package shared

import (
	"github.com/google/uuid"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// NewID 生成按时间排序的UUIDv7
func NewID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "生成id失败")
	}
	return id, nil
}
