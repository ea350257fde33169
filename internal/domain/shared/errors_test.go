package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	notFound := NewDomainError("NOT_FOUND", "Coupon not found")

	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", notFound), ErrNotFound))
	assert.False(t, errors.Is(notFound, ErrAlreadyExists))
	assert.False(t, errors.Is(errors.New("NOT_FOUND"), ErrNotFound))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "ALREADY_EXISTS", CodeOf(fmt.Errorf("wrap: %w", ErrAlreadyExists)))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestBaseAggregateRoot_PullDomainEvents(t *testing.T) {
	root := NewBaseAggregateRoot()
	ev := NewBaseDomainEvent("CouponCreated", "Coupon", root.ID, uuid.Nil)
	root.AddDomainEvent(&ev)

	assert.Len(t, root.GetDomainEvents(), 1)
	pulled := root.PullDomainEvents()
	assert.Len(t, pulled, 1)
	assert.Equal(t, "CouponCreated", pulled[0].EventType())
	assert.Empty(t, root.GetDomainEvents())
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	later := e.CreatedAt.Add(time.Hour)
	e.Touch(later)
	assert.Equal(t, later, e.UpdatedAt)
	assert.NotEqual(t, e.CreatedAt, e.UpdatedAt)
}

func TestFilter_Offset(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 0, f.Offset())
	f.Page = 3
	assert.Equal(t, 40, f.Offset())
	f.Page = 0
	assert.Equal(t, 0, f.Offset())
}
