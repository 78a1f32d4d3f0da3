package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := fmt.Errorf("enroll: %w", internalError(cause))

	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "internal")

	assert.True(t, IsKind(newError(KindAlreadyEnrolled, MsgPINAlreadySet), KindAlreadyEnrolled))
	assert.False(t, IsKind(cause, KindNotFound))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, "validation: "+MsgInvalidMonths, newError(KindValidation, MsgInvalidMonths).Error())
}
