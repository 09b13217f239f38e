package surrealdb

import (
	"fmt"
	"regexp"
	"strings"
)

var paramPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// batch collects write statements for one transaction. Parameters are
// renamed per statement so their variables never collide.
type batch struct {
	stmts []string
	vars  map[string]any
}

func newBatch() *batch {
	return &batch{vars: make(map[string]any)}
}

func (b *batch) len() int {
	return len(b.stmts)
}

func (b *batch) add(sql string, vars map[string]any) {
	prefix := fmt.Sprintf("s%d_", len(b.stmts))
	stmt := paramPattern.ReplaceAllStringFunc(sql, func(p string) string {
		name := p[1:]
		if _, ok := vars[name]; !ok {
			return p
		}
		return "$" + prefix + name
	})
	for k, v := range vars {
		b.vars[prefix+k] = v
	}
	b.stmts = append(b.stmts, strings.TrimSpace(stmt))
}

func (b *batch) script() string {
	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.stmts {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String()
}
