package route

import "strings"

// Echo renders the template in echo router syntax
func (t *Template) Echo() string {
	return t.render(func(b *strings.Builder, p Part) {
		if p.CatchAll {
			b.WriteString("*")
			return
		}
		b.WriteString(":")
		b.WriteString(p.Value)
	})
}

// Gin renders the template in gin router syntax
func (t *Template) Gin() string {
	return t.render(func(b *strings.Builder, p Part) {
		if p.CatchAll {
			b.WriteString("*")
		} else {
			b.WriteString(":")
		}
		b.WriteString(p.Value)
	})
}

// Fiber renders the template in fiber router syntax
func (t *Template) Fiber() string {
	return t.render(func(b *strings.Builder, p Part) {
		if p.CatchAll {
			b.WriteString("*")
			return
		}
		b.WriteString(":")
		b.WriteString(p.Value)
		if p.Optional {
			b.WriteString("?")
		}
	})
}

// Normalized renders parameters as placeholders so equivalent routes compare equal
func (t *Template) Normalized() string {
	return t.render(func(b *strings.Builder, p Part) {
		if p.CatchAll {
			b.WriteString("{*}")
			return
		}
		b.WriteString("{}")
	})
}

func (t *Template) render(param func(*strings.Builder, Part)) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.Type == LiteralPart {
			b.WriteString(p.Value)
			continue
		}
		param(&b, p)
	}
	return b.String()
}
