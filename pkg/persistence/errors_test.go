package persistence_test

import (
	"errors"
	"testing"

	"github.com/safehands/guide/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error constants are available", func(t *testing.T) {
		assert.NotNil(t, persistence.ErrNotFound)
		assert.NotNil(t, persistence.ErrStoreUnavailable)
	})

	t.Run("unavailable error unwraps to sentinel and cause", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := persistence.NewUnavailableError("Get", "workflow:s1", cause)

		assert.True(t, persistence.IsStoreUnavailable(err))
		assert.False(t, persistence.IsNotFound(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("store error contains context", func(t *testing.T) {
		err := persistence.NewUnavailableError("Put", "workflow:s1", errors.New("timeout"))

		assert.Contains(t, err.Error(), "Put")
		assert.Contains(t, err.Error(), "workflow:s1")
		assert.Contains(t, err.Error(), "state store unavailable")
	})

	t.Run("store error without key", func(t *testing.T) {
		err := &persistence.StoreError{Op: "ListKeys", Err: persistence.ErrNotFound}

		assert.Equal(t, "ListKeys operation failed: key not found", err.Error())
		assert.True(t, persistence.IsNotFound(err))
	})
}

func TestNamespace(t *testing.T) {
	t.Parallel()

	ns := persistence.Namespace{Prefix: "workflow:"}

	assert.Equal(t, "workflow:abc", ns.Key("abc"))
	assert.Equal(t, "abc", ns.ID("workflow:abc"))
	assert.Equal(t, "other:abc", ns.ID("other:abc"))
}
