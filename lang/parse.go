package lang

import (
	"log/slog"
	"strconv"
)

// stackEntry is an element of the parser's operator stack.
type stackEntry struct {
	tok   Token
	unary bool   // prefix minus
	named string // pending named argument, tok is the '='
	call  bool   // left paren opening a function's argument list
}

func (s stackEntry) isOperator() bool { return s.tok.Kind == TokenOperator }

func (s stackEntry) precedence() int {
	if s.unary {
		return unaryPrecedence
	}

	return precedence(s.tok.Text)
}

// postfix is an element of the output queue.
type postfix struct {
	tok   Token
	unary bool
	named string
	arity int // resolved argument count, when tok is the synthetic literal
	count bool
}

// arityNode carries a resolved argument count from the output queue to the
// function that consumes it during tree building. It never escapes Parse.
type arityNode struct{ n int }

func (*arityNode) expression()      {}
func (x *arityNode) String() string { return "#" + strconv.Itoa(x.n) }

func syntaxError(tok Token, format string, args ...any) *Error {
	return ErrSyntax.Detailf(format+" at %s", append(args, tok.Pos)...).
		With(slog.Int("line", tok.Pos.Line), slog.Int("column", tok.Pos.Column))
}

// Parse builds one expression from tokens using a two-stack
// operator-precedence algorithm that also counts the arguments of each
// function call.
func Parse(tokens []Token) (Expression, error) {
	if len(tokens) == 0 {
		return nil, ErrSyntax.Detailf("empty expression")
	}

	queue, err := toPostfix(tokens)
	if err != nil {
		return nil, err
	}

	return buildTree(queue, tokens[len(tokens)-1])
}

func toPostfix(tokens []Token) ([]postfix, error) {
	var (
		queue  []postfix
		stack  []stackEntry
		counts []int

		// true where an operand must come next: start of input and after
		// an operator, comma, or left paren
		expectOperand = true
	)

	top := func() (stackEntry, bool) {
		if len(stack) == 0 {
			return stackEntry{}, false
		}

		return stack[len(stack)-1], true
	}

	pop := func() stackEntry {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		return e
	}

	emit := func(e stackEntry) {
		queue = append(queue, postfix{tok: e.tok, unary: e.unary, named: e.named})
	}

	// unwind emits operators down to the nearest left paren and reports
	// whether one was found
	unwind := func() bool {
		for {
			e, ok := top()
			if !ok {
				return false
			}

			if e.tok.Kind == TokenLeftParen {
				return true
			}

			emit(pop())
		}
	}

	for i, tok := range tokens {
		switch tok.Kind {
		case TokenLiteral, TokenVariable:
			if !expectOperand {
				return nil, syntaxError(tok, "unexpected %s %s", tok.Kind, tok)
			}

			queue = append(queue, postfix{tok: tok})
			expectOperand = false

		case TokenFunction:
			if !expectOperand {
				return nil, syntaxError(tok, "unexpected function %s", tok.Text)
			}

			stack = append(stack, stackEntry{tok: tok})

		case TokenOperator:
			if expectOperand {
				if tok.Text != "-" {
					return nil, syntaxError(tok, "unexpected operator %q", tok.Text)
				}

				// prefix operators bind tighter than anything on the stack
				stack = append(stack, stackEntry{tok: tok, unary: true})

				continue
			}

			if tok.Text == "=" {
				entry, err := namedArgument(tokens, i, stack)
				if err != nil {
					return nil, err
				}

				// the name was queued as a variable
				queue = queue[:len(queue)-1]
				stack = append(stack, entry)
				expectOperand = true

				continue
			}

			p := precedence(tok.Text)
			if p < 0 {
				return nil, syntaxError(tok, "unsupported operator %q", tok.Text)
			}

			for {
				e, ok := top()
				if !ok || !e.isOperator() || e.precedence() < p {
					break
				}

				emit(pop())
			}

			stack = append(stack, stackEntry{tok: tok})
			expectOperand = true

		case TokenLeftParen:
			if !expectOperand {
				return nil, syntaxError(tok, "unexpected %q", "(")
			}

			e, _ := top()

			stack = append(stack, stackEntry{tok: tok, call: e.tok.Kind == TokenFunction})
			counts = append(counts, 1)
			expectOperand = true

		case TokenComma:
			if expectOperand {
				return nil, syntaxError(tok, "missing argument before comma")
			}

			if !unwind() {
				return nil, syntaxError(tok, "comma outside argument list")
			}

			if e, _ := top(); !e.call {
				return nil, syntaxError(tok, "comma inside grouping parentheses")
			}

			counts[len(counts)-1]++
			expectOperand = true

		case TokenRightParen:
			if !unwind() {
				return nil, syntaxError(tok, "unmatched closing parenthesis")
			}

			open := pop()
			n := counts[len(counts)-1]
			counts = counts[:len(counts)-1]

			if expectOperand {
				// only an empty argument list may close here
				if !open.call || tokens[i-1].Kind != TokenLeftParen {
					return nil, syntaxError(tok, "missing operand before %q", ")")
				}

				n = 0
			}

			if e, ok := top(); ok && e.tok.Kind == TokenFunction {
				queue = append(queue, postfix{tok: tok, arity: n, count: true})
				emit(pop())
			}

			expectOperand = false
		}
	}

	last := tokens[len(tokens)-1]
	if expectOperand {
		return nil, syntaxError(last, "unexpected end of expression")
	}

	for len(stack) > 0 {
		e := pop()

		switch e.tok.Kind {
		case TokenLeftParen:
			return nil, syntaxError(e.tok, "unmatched opening parenthesis")
		case TokenFunction:
			return nil, syntaxError(e.tok, "unclosed call to %s", e.tok.Text)
		}

		emit(e)
	}

	return queue, nil
}

// namedArgument validates the '=' at tokens[i]: it must directly follow
// a variable that opens an argument of a function call.
func namedArgument(tokens []Token, i int, stack []stackEntry) (stackEntry, error) {
	eq := tokens[i]

	if i < 2 || tokens[i-1].Kind != TokenVariable {
		return stackEntry{}, syntaxError(eq, "assignment is not allowed here")
	}

	if k := tokens[i-2].Kind; k != TokenLeftParen && k != TokenComma {
		return stackEntry{}, syntaxError(eq, "assignment is not allowed here")
	}

	if len(stack) == 0 || !stack[len(stack)-1].call {
		return stackEntry{}, syntaxError(eq, "named argument outside function call")
	}

	return stackEntry{tok: eq, named: tokens[i-1].Text}, nil
}

func buildTree(queue []postfix, last Token) (Expression, error) {
	var values []Expression

	popValue := func(tok Token) (Expression, error) {
		if len(values) == 0 {
			return nil, syntaxError(tok, "missing operand for %s", tok)
		}

		v := values[len(values)-1]
		values = values[:len(values)-1]

		if _, ok := v.(*arityNode); ok {
			return nil, syntaxError(tok, "malformed expression near %s", tok)
		}

		return v, nil
	}

	for _, item := range queue {
		tok := item.tok

		switch {
		case item.count:
			values = append(values, &arityNode{n: item.arity})

		case tok.Kind == TokenLiteral:
			values = append(values, &Literal{Text: tok.Text, Quoted: tok.Quoted})

		case tok.Kind == TokenVariable:
			values = append(values, &Identifier{Name: tok.Text})

		case tok.Kind == TokenFunction:
			if len(values) == 0 {
				return nil, syntaxError(tok, "missing argument count for %s", tok.Text)
			}

			an, ok := values[len(values)-1].(*arityNode)
			if !ok || len(values)-1 < an.n {
				return nil, syntaxError(tok, "malformed call to %s", tok.Text)
			}

			values = values[:len(values)-1]

			args := make([]Expression, an.n)
			for j := an.n - 1; j >= 0; j-- {
				v, err := popValue(tok)
				if err != nil {
					return nil, err
				}

				args[j] = v
			}

			values = append(values, &FunctionCall{Name: tok.Text, Args: args})

		case item.named != "":
			v, err := popValue(tok)
			if err != nil {
				return nil, err
			}

			values = append(values, &Argument{Name: item.named, Value: v})

		case item.unary:
			v, err := popValue(tok)
			if err != nil {
				return nil, err
			}

			values = append(values, &UnaryOp{Op: tok.Text, Operand: v})

		case tok.Kind == TokenOperator:
			right, err := popValue(tok)
			if err != nil {
				return nil, err
			}

			left, err := popValue(tok)
			if err != nil {
				return nil, err
			}

			values = append(values, &BinaryOp{Op: tok.Text, Left: left, Right: right})
		}
	}

	if len(values) != 1 {
		return nil, syntaxError(last, "expected one expression, found %d", len(values))
	}

	if _, ok := values[0].(*arityNode); ok {
		return nil, syntaxError(last, "malformed expression")
	}

	return values[0], nil
}

// ParseLine parses one script line. A line of the form "name = expr"
// becomes a named [Assignment]; anything else is wrapped in an Assignment
// with an empty name.
func ParseLine(line string) (*Assignment, error) {
	return parseLine(line, 1)
}

func parseLine(line string, lineno int) (*Assignment, error) {
	tokens, err := tokenize(line, lineno)
	if err != nil {
		return nil, err
	}

	name := ""

	if len(tokens) >= 2 &&
		tokens[0].Kind == TokenVariable &&
		tokens[1].Kind == TokenOperator && tokens[1].Text == "=" {
		name = tokens[0].Text
		tokens = tokens[2:]

		if len(tokens) == 0 {
			end := Token{Pos: Pos{Offset: len(line), Line: lineno, Column: len(line) + 1}}

			return nil, syntaxError(end, "missing value for %s", name)
		}
	}

	x, err := Parse(tokens)
	if err != nil {
		return nil, err
	}

	return &Assignment{Name: name, Value: x}, nil
}
