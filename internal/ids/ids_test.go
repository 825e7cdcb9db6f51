package ids

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SortsInCreationOrder(t *testing.T) {
	generated := make([]string, 100)
	for i := range generated {
		generated[i] = New()
	}

	assert.True(t, sort.StringsAreSorted(generated))
	assert.Len(t, generated[0], 26)
}

func TestTemp(t *testing.T) {
	id := NewTemp()

	assert.True(t, IsTemp(id))
	assert.False(t, IsTemp(New()))
}
