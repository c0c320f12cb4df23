package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/matrix"
)

// Command is one operator of a content stream together with its operands.
// Operands are kept as their source tokens so that a stream can be written
// back without reinterpreting anything but the operands we change.
type Command struct {
	Operands []string
	Operator string

	// Data holds the raw samples of an inline image (operator BI).
	Data []byte
}

// Numbers returns the operands as numbers.
func (c Command) Numbers() ([]float64, error) {
	nums := make([]float64, len(c.Operands))
	for i, op := range c.Operands {
		v, err := strconv.ParseFloat(op, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: operand %q of %s is not a number", ErrParse, op, c.Operator)
		}
		nums[i] = v
	}
	return nums, nil
}

// Matrix interprets the operands of a cm command.
func (c Command) Matrix() (matrix.Matrix, error) {
	if len(c.Operands) != 6 {
		return matrix.Matrix{}, fmt.Errorf("%w: %s takes 6 operands, got %d", ErrParse, c.Operator, len(c.Operands))
	}
	nums, err := c.Numbers()
	if err != nil {
		return matrix.Matrix{}, err
	}
	var m matrix.Matrix
	copy(m[:], nums)
	return m, nil
}

// MatrixOperands formats m as the six operands of a cm command.
func MatrixOperands(m matrix.Matrix) []string {
	ops := make([]string, len(m))
	for i, v := range m {
		ops[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ops
}

// ParseContent splits a decoded content stream into commands.
func ParseContent(data []byte) ([]Command, error) {
	l := &lexer{data: data}

	var cmds []Command
	var operands []string
	for {
		tok, kind, err := l.next()
		if err != nil {
			return nil, err
		}
		switch kind {
		case tokEOF:
			if len(operands) > 0 {
				return nil, fmt.Errorf("%w: %d operands without operator at end of stream", ErrParse, len(operands))
			}
			return cmds, nil
		case tokOperand:
			operands = append(operands, tok)
		case tokCloser:
			return nil, fmt.Errorf("%w: unbalanced %q at offset %d", ErrParse, tok, l.pos)
		case tokOperator:
			cmd := Command{Operands: operands, Operator: tok}
			operands = nil
			if tok == "BI" {
				if err := l.inlineImage(&cmd); err != nil {
					return nil, err
				}
			}
			cmds = append(cmds, cmd)
		}
	}
}

// FormatContent writes commands back as a content stream, one per line.
func FormatContent(cmds []Command) []byte {
	var buf bytes.Buffer
	for _, c := range cmds {
		if c.Operator == "BI" {
			buf.WriteString("BI ")
		}
		for _, op := range c.Operands {
			buf.WriteString(op)
			buf.WriteByte(' ')
		}
		if c.Operator == "BI" {
			buf.WriteString("ID ")
			buf.Write(c.Data)
			buf.WriteString("\nEI\n")
			continue
		}
		buf.WriteString(c.Operator)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOperand
	tokOperator
	tokCloser
)

type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func (l *lexer) next() (string, tokenKind, error) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return "", tokEOF, nil
	}

	start := l.pos
	c := l.data[l.pos]
	switch {
	case c == '(':
		if err := l.literalString(); err != nil {
			return "", 0, err
		}
		return string(l.data[start:l.pos]), tokOperand, nil

	case c == '<' && l.peek(1) == '<':
		l.pos += 2
		if err := l.until(">>"); err != nil {
			return "", 0, err
		}
		return string(l.data[start:l.pos]), tokOperand, nil

	case c == '<':
		end := bytes.IndexByte(l.data[l.pos:], '>')
		if end < 0 {
			return "", 0, fmt.Errorf("%w: unterminated hex string at offset %d", ErrParse, start)
		}
		l.pos += end + 1
		return string(l.data[start:l.pos]), tokOperand, nil

	case c == '[':
		l.pos++
		if err := l.until("]"); err != nil {
			return "", 0, err
		}
		return string(l.data[start:l.pos]), tokOperand, nil

	case c == ']' || c == '}':
		l.pos++
		return string(c), tokCloser, nil

	case c == '>' && l.peek(1) == '>':
		l.pos += 2
		return ">>", tokCloser, nil

	case c == '/':
		l.pos++
		return "/" + l.regular(), tokOperand, nil

	case c == '{' || c == ')' || c == '>':
		return "", 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrParse, c, start)
	}

	tok := l.regular()
	switch {
	case strings.IndexByte("+-.0123456789", tok[0]) >= 0:
		return tok, tokOperand, nil
	case tok == "true" || tok == "false" || tok == "null":
		return tok, tokOperand, nil
	}
	return tok, tokOperator, nil
}

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.data) {
		return l.data[l.pos+off]
	}
	return 0
}

// until consumes tokens up to and including the given closer.
func (l *lexer) until(closer string) error {
	for {
		tok, kind, err := l.next()
		if err != nil {
			return err
		}
		switch kind {
		case tokEOF:
			return fmt.Errorf("%w: missing %q", ErrParse, closer)
		case tokCloser:
			if tok != closer {
				return fmt.Errorf("%w: %q where %q was expected", ErrParse, tok, closer)
			}
			return nil
		}
	}
}

func (l *lexer) literalString() error {
	start := l.pos
	depth := 0
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			l.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: unterminated string at offset %d", ErrParse, start)
}

// inlineImage reads the parameters and samples of a BI ... ID ... EI block.
func (l *lexer) inlineImage(cmd *Command) error {
	for {
		tok, kind, err := l.next()
		if err != nil {
			return err
		}
		if kind == tokEOF {
			return fmt.Errorf("%w: inline image without ID", ErrParse)
		}
		if kind == tokOperator && tok == "ID" {
			break
		}
		cmd.Operands = append(cmd.Operands, tok)
	}

	// A single white-space byte separates ID from the samples.
	l.pos++
	start := l.pos
	for i := start; i+2 <= len(l.data); i++ {
		if l.data[i] != 'E' || l.data[i+1] != 'I' {
			continue
		}
		if i > start && !isSpace(l.data[i-1]) {
			continue
		}
		if i+2 < len(l.data) && !isSpace(l.data[i+2]) && !isDelimiter(l.data[i+2]) {
			continue
		}
		end := i
		if end > start {
			end-- // the separator before EI
		}
		cmd.Data = l.data[start:end]
		l.pos = i + 2
		return nil
	}
	return fmt.Errorf("%w: inline image without EI", ErrParse)
}
