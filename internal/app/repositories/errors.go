package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
	"github.com/yigit/rosterhub/internal/pkg/logger"
)

// translateStoreError maps a docstore error to the application errors and
// logs storage failures. Driver text never reaches the returned message.
// notFound is returned in place of docstore.ErrNotFound.
func translateStoreError(err error, op, collection, key string, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return notFound
	case errors.Is(err, docstore.ErrInvalidID):
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidID, key)
	case errors.Is(err, docstore.ErrInvalidFilter):
		return fmt.Errorf("%w: %s", apperrors.ErrValidationFailed, err.Error())
	case errors.Is(err, docstore.ErrDuplicateKey):
		return apperrors.ErrConflict
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, docstore.ErrTimeout):
		logStorageFailure(err, op, collection, key).Msg("Storage operation timed out")
		return fmt.Errorf("%w: %s %s", apperrors.ErrStorageTimeout, op, collection)
	default:
		logStorageFailure(err, op, collection, key).Msg("Storage operation failed")
		return fmt.Errorf("%w: %s %s", apperrors.ErrStorageUnavailable, op, collection)
	}
}

func logStorageFailure(err error, op, collection, key string) *zerolog.Event {
	return logger.Error().Err(err).
		Str("operation", op).
		Str("collection", collection).
		Str("key", key)
}
