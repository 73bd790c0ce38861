// Package lang implements the image script language: a tokenizer, an
// operator-precedence parser, the syntax tree, the builtin catalog, and an
// evaluator with user-defined functions.
//
// # Scripts
//
// A script is a sequence of lines grouped into bracketed sections:
//
//	# pixel shifts
//	[params]
//	shift = 2.5
//
//	[fun:limb img angle]
//	result = rotate_deg(autocrop(img), angle)
//
//	[outputs]
//	disk = limb(img(shift), 12)
//	stack = limb(list(img(0), img(-shift), img(shift)), 0)
//	dark = adjust_gamma(disk, gamma=0.8)
//
// Expressions combine numbers, quoted strings, variables, function calls,
// the operators + - * /, unary minus, and parentheses. Builtin names are
// case-insensitive; user function and variable names are not. Calls take
// either positional arguments or, for builtins, only named arguments.
//
// # Parsing
//
// [Tokenize] and [Parse] turn one expression into an [Expression] tree.
// The parser converts infix tokens to postfix with two stacks and counts
// each call's arguments as it closes the call's parentheses; grouping
// parentheses never carry a count. [ParseScript] splits a file into
// sections and caches the result by content hash.
//
// # Builtins
//
// The catalog ([Builtins], [Lookup]) declares each operation's parameters.
// [ValidateArgs] and [MapPositional] enforce those contracts and
// [CheckArgs] runs the operation's precondition. The operations themselves
// are performed by a [Dispatcher].
//
// # Evaluation
//
// An [Evaluator] holds the variables and user functions of one evaluation.
// A [UserFunction] runs its body against a fresh evaluator, and broadcasts
// over a list first argument in parallel while preserving order. Pixel
// shifts of images produced along the way are reported through the
// [ExecContext].
package lang
