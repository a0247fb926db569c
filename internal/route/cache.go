package route

import "github.com/toyz/bindplan/internal/utils"

type parsed struct {
	template *Template
	err      error
}

// Cache memoizes parse results per route text
type Cache struct {
	entries *utils.Cache[string, parsed]
}

// NewCache creates an empty template cache
func NewCache() *Cache {
	return &Cache{entries: utils.NewCache[string, parsed]()}
}

// Parse returns the cached result for text, parsing it on first use
func (c *Cache) Parse(text string) (*Template, error) {
	result := c.entries.GetOrCompute(text, func() parsed {
		t, err := Parse(text)
		return parsed{template: t, err: err}
	})
	return result.template, result.err
}

// Size returns the number of distinct templates seen
func (c *Cache) Size() int {
	return c.entries.Size()
}
