package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/typebridge/typebridge/errors"
)

func TestIsStructural(t *testing.T) {
	structural := []error{
		errors.Wrap(errors.ErrCyclicDependency, "type A"),
		errors.Wrapf(errors.ErrInvalidMapKey, "field %q", "k"),
		errors.ErrUnsafeNumeric,
		errors.ErrFlattenUnsupported,
	}
	for _, err := range structural {
		assert.True(t, errors.IsStructural(err), "%v", err)
	}

	assert.False(t, errors.IsStructural(nil))
	assert.False(t, errors.IsStructural(errors.New("disk full")))
	assert.False(t, errors.IsStructural(errors.ErrMissingConfig),
		"configuration problems are not fixable by editing the types")
}

func TestIsStructural_SurvivesJoin(t *testing.T) {
	err := errors.Join(
		errors.Wrap(errors.ErrFlattenUnsupported, "field a"),
		errors.Wrap(errors.ErrCyclicDependency, "type B"),
	)
	assert.True(t, errors.IsStructural(err), "joined structural errors stay structural")
}
