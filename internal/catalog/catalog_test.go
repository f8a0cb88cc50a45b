package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ByID(t *testing.T) {
	c := Default()

	p, ok := c.ByID(2)
	require.True(t, ok)
	assert.Equal(t, "Latte", p.Name)
	assert.Equal(t, int64(400), p.Price)
	assert.Equal(t, CategoryCoffee, p.Category)

	_, ok = c.ByID(999)
	assert.False(t, ok)
}

func Test_All(t *testing.T) {
	c := Default()
	all := c.All()
	require.Len(t, all, 7)

	// All returns a copy: mutating it must not affect the catalog.
	all[0].Name = "mutated"
	p, ok := c.ByID(all[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", p.Name)
}

func Test_Filter(t *testing.T) {
	c := Default()

	testCases := []struct {
		name     string
		category Category
		query    string
		expected []string
	}{
		{
			name:     "no filters returns everything",
			expected: []string{"Burger Mozza XL", "Latte", "Espresso", "Green Tea", "Croissant", "Chilli Fried Burger", "Cookie"},
		},
		{
			name:     "all category returns everything",
			category: CategoryAll,
			expected: []string{"Burger Mozza XL", "Latte", "Espresso", "Green Tea", "Croissant", "Chilli Fried Burger", "Cookie"},
		},
		{
			name:     "category filter",
			category: CategoryCoffee,
			expected: []string{"Latte", "Espresso"},
		},
		{
			name:     "query is case-insensitive",
			query:    "BURGER",
			expected: []string{"Burger Mozza XL", "Chilli Fried Burger"},
		},
		{
			name:     "category and query combine",
			category: CategoryPastry,
			query:    "cro",
			expected: []string{"Croissant"},
		},
		{
			name:     "no match yields empty slice",
			query:    "pizza",
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Filter(tc.category, tc.query)
			names := make([]string, 0, len(got))
			for _, p := range got {
				names = append(names, p.Name)
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}
