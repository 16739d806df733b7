package wire

import (
	"strings"

	mapset "github.com/deckarep/golang-set"
)

// Replacement is written in place of characters outside the allow-list
const Replacement = '_'

const safeChars = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	" _,.-/@()*~`&^%$#!?<>'\";:+=[]{}|" +
	"1234567890"

var allowed = newCharSet(safeChars)

func newCharSet(chars string) mapset.Set {
	set := mapset.NewThreadUnsafeSet()
	for _, ch := range chars {
		set.Add(ch)
	}
	return set
}

// Sanitize replaces every character not in the allow-list with '_'
func Sanitize(buf string) string {
	if buf == "" {
		return buf
	}
	var b strings.Builder
	b.Grow(len(buf))
	for _, ch := range buf {
		if allowed.Contains(ch) {
			b.WriteRune(ch)
		} else {
			b.WriteRune(Replacement)
		}
	}
	return b.String()
}
