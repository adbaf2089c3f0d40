// Package credential генерирует пароли доступа к курсам.
//
// Пароль строится из префикса имени и случайного хвоста и не является
// криптографически стойким секретом: он лишь открывает доступ к материалам курса.
package credential

import (
	"math/rand/v2"
	"strings"
)

const (
	prefixLen = 5
	suffixLen = 5
	alphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generator создаёт пароли; источник случайности подменяется в тестах.
type Generator struct {
	intN func(n int) int
}

// NewGenerator создаёт генератор на основе math/rand/v2.
func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// Generate возвращает пароль из не более чем пяти буквенно-цифровых символов seed
// и пяти случайных символов [a-z0-9] в нижнем регистре.
func (g *Generator) Generate(seed string) string {
	var b strings.Builder
	b.Grow(prefixLen + suffixLen)

	n := 0
	for _, r := range seed {
		if n == prefixLen {
			break
		}
		if isASCIIAlnum(r) {
			b.WriteRune(r)
			n++
		}
	}

	for i := 0; i < suffixLen; i++ {
		b.WriteByte(alphabet[g.intN(len(alphabet))])
	}

	return strings.ToLower(b.String())
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
