// Package parser implements the recursive-descent parser of spec §4.4:
// precedence climbing for expressions, two-token lookahead to disambiguate
// variable from function declarations, and explicit depth tracking through
// the recursive parsing methods (see checkDepth). The overall shape — a Parser struct holding a
// token cursor, `p.error`-style diagnostics, and a `currentLoc()` helper —
// is carried from the teacher's lang/parse/parser.go; its panic-mode
// recovery (synchronize/synchronizeStmt) is dropped, since spec.md's
// Non-goals rule out error recovery: the parser returns the first error.
package parser

import (
	"github.com/paul-ciorogar/suru-lang-sub001/internal/ast"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/diag"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/token"
)

// Parser holds parsing state for one compilation unit.
type Parser struct {
	toks      []token.Token
	src       []byte
	cur       int
	lastIndex int
	store     *ast.Store
	lim       limits.Limits
}

// Parse builds the AST for toks (as produced by internal/lexer) and
// returns the node store plus the root Program node's index.
func Parse(toks []token.Token, source []byte, lim limits.Limits) (*ast.Store, int, error) {
	p := &Parser{toks: toks, src: source, store: ast.NewStore(lim.MaxASTNodes), lim: lim}
	root, err := p.parseProgram()
	return p.store, root, err
}

// ---- token cursor -------------------------------------------------------

func isCommentKind(k token.Kind) bool {
	return k == token.LineComment || k == token.BlockComment
}

func (p *Parser) skipComments() {
	for p.cur < len(p.toks) && isCommentKind(p.toks[p.cur].Kind) {
		p.cur++
	}
}

func (p *Parser) peek() token.Token {
	p.skipComments()
	return p.toks[p.cur]
}

// peekIsDeclaration looks past the current identifier (and, if present, an
// inline type annotation of the form `Ident['<' ... '>']`) to see whether a
// ':' follows — the two-token-lookahead spec §4.4 calls for to recognize a
// variable/function declaration starting a statement inside a block.
func (p *Parser) peekIsDeclaration() bool {
	idx := p.cur
	idx = skipCommentsAt(p.toks, idx)
	if idx >= len(p.toks) || p.toks[idx].Kind != token.Identifier {
		return false
	}
	idx++
	idx = skipCommentsAt(p.toks, idx)
	if idx < len(p.toks) && p.toks[idx].Kind == token.Colon {
		return true
	}
	if idx < len(p.toks) && p.toks[idx].Kind == token.Identifier {
		idx++
		idx = skipCommentsAt(p.toks, idx)
		if idx < len(p.toks) && p.toks[idx].Kind == token.Lt {
			depth := 1
			idx++
			for depth > 0 && idx < len(p.toks) && p.toks[idx].Kind != token.EOF {
				switch p.toks[idx].Kind {
				case token.Lt:
					depth++
				case token.Gt:
					depth--
				}
				idx++
			}
			idx = skipCommentsAt(p.toks, idx)
		}
		if idx < len(p.toks) && p.toks[idx].Kind == token.Colon {
			return true
		}
	}
	return false
}

func skipCommentsAt(toks []token.Token, idx int) int {
	for idx < len(toks) && isCommentKind(toks[idx].Kind) {
		idx++
	}
	return idx
}

func (p *Parser) advance() token.Token {
	p.skipComments()
	idx := p.cur
	t := p.toks[idx]
	p.cur = idx + 1
	p.lastIndex = idx
	return t
}

func (p *Parser) atEOF() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) spanOf(t token.Token) diag.Span {
	return diag.Span{Offset: t.Start, Length: t.Length, Line: t.Line, Column: t.Column}
}

func (p *Parser) currentLoc() diag.Span {
	return p.spanOf(p.peek())
}

func (p *Parser) errorf(kind diag.Kind, format string, args ...interface{}) error {
	return diag.New(kind, p.currentLoc(), format, args...)
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	t := p.peek()
	if t.Kind != kind {
		if t.Kind == token.EOF {
			return t, p.errorf(diag.KindUnexpectedEOF, "expected %s, reached end of input", kind)
		}
		return t, p.errorf(diag.KindUnexpectedToken, "expected %s, got %s", kind, t.Kind)
	}
	return p.advance(), nil
}

// checkDepth fails once depth exceeds max_expression_depth. It is the first
// action of parseDeclaration, parseParamList, parseTypeDeclBody,
// parseTypeExpr, parseBlock, parseArgs, parsePattern and every expression
// level (parseOr through parsePrimary); the other parsing methods do not
// call it and rely on the checks of the methods they call.
func (p *Parser) checkDepth(depth int) error {
	if depth > p.lim.MaxExpressionDepth {
		return p.errorf(diag.KindRecursionLimitExceeded, "nesting exceeds max_expression_depth (%d)", p.lim.MaxExpressionDepth)
	}
	return nil
}

func (p *Parser) newNode(typ ast.NodeType, tokenIndex int) (int, error) {
	return p.store.CreateNode(typ, tokenIndex)
}

// ---- top level -----------------------------------------------------------

func (p *Parser) parseProgram() (int, error) {
	root, err := p.newNode(ast.Program, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}

	if p.peek().Kind == token.KeywordModule {
		mod, err := p.parseModuleStmt()
		if err != nil {
			return root, err
		}
		p.store.AppendChild(root, mod)
	}
	if p.peek().Kind == token.KeywordImport {
		imp, err := p.parseImportBlock()
		if err != nil {
			return root, err
		}
		p.store.AppendChild(root, imp)
	}
	if p.peek().Kind == token.KeywordExport {
		exp, err := p.parseExportBlock()
		if err != nil {
			return root, err
		}
		p.store.AppendChild(root, exp)
	}

	for !p.atEOF() {
		if p.peek().Kind == token.Semicolon {
			p.advance()
			continue
		}
		decl, err := p.parseDeclaration(1)
		if err != nil {
			return root, err
		}
		p.store.AppendChild(root, decl)
		if p.peek().Kind == token.Semicolon {
			p.advance()
		}
	}
	return root, nil
}

func (p *Parser) parseModuleStmt() (int, error) {
	p.advance() // 'module'
	_, err := p.expect(token.Identifier)
	if err != nil {
		return ast.NoIndex, err
	}
	node, err := p.newNode(ast.ModuleStmt, p.lastIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind == token.Dot {
		p.advance()
		if _, err := p.expect(token.Identifier); err != nil {
			return ast.NoIndex, err
		}
	}
	return node, nil
}

func (p *Parser) parseImportBlock() (int, error) {
	p.advance() // 'import'
	block, err := p.newNode(ast.ImportBlock, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "unterminated import block")
		}
		if p.peek().Kind == token.Comma || p.peek().Kind == token.Semicolon {
			p.advance()
			continue
		}
		if _, err := p.expect(token.Identifier); err != nil {
			return ast.NoIndex, err
		}
		id, err := p.newNode(ast.Identifier, p.lastIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(block, id)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return ast.NoIndex, err
	}
	return block, nil
}

func (p *Parser) parseExportBlock() (int, error) {
	p.advance() // 'export'
	block, err := p.newNode(ast.ExportBlock, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "unterminated export block")
		}
		if p.peek().Kind == token.Comma || p.peek().Kind == token.Semicolon {
			p.advance()
			continue
		}
		if _, err := p.expect(token.Identifier); err != nil {
			return ast.NoIndex, err
		}
		id, err := p.newNode(ast.Identifier, p.lastIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(block, id)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return ast.NoIndex, err
	}
	return block, nil
}

// parseDeclaration parses one top-level or block-nested declaration: a
// type declaration, or the shared variable/function-declaration prefix.
func (p *Parser) parseDeclaration(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	switch p.peek().Kind {
	case token.KeywordType:
		return p.parseTypeDecl(depth)
	case token.Identifier:
		return p.parseVarOrFuncDecl(depth)
	case token.EOF:
		return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "expected a declaration")
	default:
		return ast.NoIndex, p.errorf(diag.KindUnexpectedToken, "expected a declaration, got %s", p.peek().Kind)
	}
}

// ---- variable / function declarations ------------------------------------

// parseVarOrFuncDecl implements the bounded lookahead of spec §4.4: both
// forms begin with `identifier [typeAnnotation] :`; the token right after
// the colon decides function (`(`) vs variable (anything else).
func (p *Parser) parseVarOrFuncDecl(depth int) (int, error) {
	if _, err := p.expect(token.Identifier); err != nil {
		return ast.NoIndex, err
	}
	identIdx := p.lastIndex

	annotation := ast.NoIndex
	if p.peek().Kind != token.Colon {
		a, err := p.parseTypeExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		annotation = a
	}
	if _, err := p.expect(token.Colon); err != nil {
		return ast.NoIndex, err
	}

	if p.peek().Kind == token.LParen {
		return p.parseFuncDeclRest(depth, identIdx)
	}
	return p.parseVarDeclRest(depth, identIdx, annotation)
}

func (p *Parser) parseVarDeclRest(depth int, identIdx, annotation int) (int, error) {
	node, err := p.newNode(ast.VarDecl, identIdx)
	if err != nil {
		return ast.NoIndex, err
	}
	if annotation != ast.NoIndex {
		p.store.AppendChild(node, annotation)
	}
	expr, err := p.parseExpr(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(node, expr)
	return node, nil
}

func (p *Parser) parseFuncDeclRest(depth int, identIdx int) (int, error) {
	node, err := p.newNode(ast.FuncDecl, identIdx)
	if err != nil {
		return ast.NoIndex, err
	}
	params, err := p.parseParamList(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(node, params)

	if p.peek().Kind != token.LBrace {
		ret, err := p.parseTypeExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, ret)
	}

	body, err := p.parseBlock(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(node, body)
	return node, nil
}

func (p *Parser) parseParamList(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return ast.NoIndex, err
	}
	list, err := p.newNode(ast.ParamList, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind != token.RParen {
		for {
			if _, err := p.expect(token.Identifier); err != nil {
				return ast.NoIndex, err
			}
			param, err := p.newNode(ast.Param, p.lastIndex)
			if err != nil {
				return ast.NoIndex, err
			}
			if p.peek().Kind != token.Comma && p.peek().Kind != token.RParen {
				typ, err := p.parseTypeExpr(depth + 1)
				if err != nil {
					return ast.NoIndex, err
				}
				p.store.AppendChild(param, typ)
			}
			p.store.AppendChild(list, param)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.NoIndex, err
	}
	return list, nil
}

// ---- type declarations and type expressions ------------------------------

func (p *Parser) parseTypeDecl(depth int) (int, error) {
	p.advance() // 'type'
	if _, err := p.expect(token.Identifier); err != nil {
		return ast.NoIndex, err
	}
	decl, err := p.newNode(ast.TypeDecl, p.lastIndex)
	if err != nil {
		return ast.NoIndex, err
	}

	if p.peek().Kind == token.Lt {
		p.advance()
		for {
			if _, err := p.expect(token.Identifier); err != nil {
				return ast.NoIndex, err
			}
			tp, err := p.newNode(ast.TypeParam, p.lastIndex)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(decl, tp)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.Gt); err != nil {
			return ast.NoIndex, err
		}
	}

	if p.peek().Kind != token.Colon {
		body, err := p.newNode(ast.TypeBodyUnit, ast.NoIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(decl, body)
		return decl, nil
	}
	p.advance() // ':'

	body, err := p.parseTypeDeclBody(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(decl, body)
	return decl, nil
}

func (p *Parser) parseTypeDeclBody(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	switch p.peek().Kind {
	case token.LBrace:
		return p.parseStructBody(depth)
	case token.LParen:
		return p.parseFunctionTypeExpr(depth)
	}

	first, err := p.parseTypeExpr(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}

	if p.peek().Kind == token.Comma {
		union, err := p.newNode(ast.TypeBodyUnion, ast.NoIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(union, first)
		for p.peek().Kind == token.Comma {
			p.advance()
			next, err := p.parseTypeExpr(depth + 1)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(union, next)
		}
		return union, nil
	}

	if p.peek().Kind == token.Plus {
		p.advance()
		second, err := p.parseTypeExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		inter, err := p.newNode(ast.TypeBodyIntersection, ast.NoIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(inter, first)
		p.store.AppendChild(inter, second)
		return inter, nil
	}

	alias, err := p.newNode(ast.TypeBodyAlias, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(alias, first)
	return alias, nil
}

func (p *Parser) parseStructBody(depth int) (int, error) {
	p.advance() // '{'
	body, err := p.newNode(ast.TypeBodyStruct, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	seen := map[string]bool{}
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "unterminated struct body")
		}
		if p.peek().Kind == token.Semicolon || p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		member, name, err := p.parseStructMember(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		if seen[name] {
			return ast.NoIndex, p.errorf(diag.KindDuplicateStructMember, "duplicate struct member %q", name)
		}
		seen[name] = true
		p.store.AppendChild(body, member)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return ast.NoIndex, err
	}
	return body, nil
}

// parseStructMember parses one field or method. A leading '-' marks the
// member private (spec §4.4's "leading visibility marker"); see DESIGN.md
// for why a punctuation marker was chosen over a naming convention.
func (p *Parser) parseStructMember(depth int) (int, string, error) {
	private := false
	if p.peek().Kind == token.Minus {
		p.advance()
		private = true
	}
	if _, err := p.expect(token.Identifier); err != nil {
		return ast.NoIndex, "", err
	}
	nameTok := p.toks[p.lastIndex]
	name := nameTok.Text(p.src)
	nameIdx := p.lastIndex

	if p.peek().Kind == token.LParen {
		method, err := p.newNode(ast.StructMethod, nameIdx)
		if err != nil {
			return ast.NoIndex, "", err
		}
		params, err := p.parseParamList(depth + 1)
		if err != nil {
			return ast.NoIndex, "", err
		}
		p.store.AppendChild(method, params)
		if p.peek().Kind != token.Semicolon && p.peek().Kind != token.RBrace &&
			p.peek().Kind != token.Comma && p.peek().Kind != token.LBrace {
			ret, err := p.parseTypeExpr(depth + 1)
			if err != nil {
				return ast.NoIndex, "", err
			}
			p.store.AppendChild(method, ret)
		}
		if p.peek().Kind == token.LBrace {
			blk, err := p.parseBlock(depth + 1)
			if err != nil {
				return ast.NoIndex, "", err
			}
			p.store.AppendChild(method, blk)
		}
		if private {
			p.store.SetFlags(method, ast.FlagPrivate)
		}
		return method, name, nil
	}

	field, err := p.newNode(ast.StructField, nameIdx)
	if err != nil {
		return ast.NoIndex, "", err
	}
	typ, err := p.parseTypeExpr(depth + 1)
	if err != nil {
		return ast.NoIndex, "", err
	}
	p.store.AppendChild(field, typ)
	if private {
		p.store.SetFlags(field, ast.FlagPrivate)
	}
	return field, name, nil
}

func (p *Parser) parseTypeExpr(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind == token.LParen {
		return p.parseFunctionTypeExpr(depth)
	}
	if _, err := p.expect(token.Identifier); err != nil {
		return ast.NoIndex, err
	}
	node, err := p.newNode(ast.TypeExpr, p.lastIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind == token.Lt {
		p.advance()
		for {
			arg, err := p.parseTypeExpr(depth + 1)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(node, arg)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.Gt); err != nil {
			return ast.NoIndex, err
		}
	}
	return node, nil
}

func (p *Parser) parseFunctionTypeExpr(depth int) (int, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return ast.NoIndex, err
	}
	node, err := p.newNode(ast.TypeBodyFunction, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind != token.RParen {
		for {
			arg, err := p.parseTypeExpr(depth + 1)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(node, arg)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind == token.Identifier || p.peek().Kind == token.LParen {
		ret, err := p.parseTypeExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, ret)
		p.store.SetFlags(node, ast.FlagHasReturn)
	}
	return node, nil
}

// ---- blocks and statements ------------------------------------------------

func (p *Parser) parseBlock(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return ast.NoIndex, err
	}
	block, err := p.newNode(ast.Block, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "unterminated block")
		}
		if p.peek().Kind == token.Semicolon {
			p.advance()
			continue
		}

		var stmt int
		switch {
		case p.peek().Kind == token.KeywordReturn:
			stmt, err = p.parseReturnStmt(depth + 1)
		case p.peek().Kind == token.KeywordType:
			stmt, err = p.parseTypeDecl(depth + 1)
		case p.peek().Kind == token.Identifier && p.peekIsDeclaration():
			stmt, err = p.parseVarOrFuncDecl(depth + 1)
		default:
			stmt, err = p.parseExpr(depth + 1)
		}
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(block, stmt)
		if p.peek().Kind == token.Semicolon {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return ast.NoIndex, err
	}
	return block, nil
}

func (p *Parser) parseReturnStmt(depth int) (int, error) {
	p.advance() // 'return'
	node, err := p.newNode(ast.ReturnStmt, p.lastIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind != token.Semicolon && p.peek().Kind != token.RBrace {
		expr, err := p.parseExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, expr)
	}
	return node, nil
}

// ---- expressions: precedence climbing ------------------------------------

func (p *Parser) parseExpr(depth int) (int, error) {
	return p.parseOr(depth)
}

func (p *Parser) parseOr(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	left, err := p.parseAnd(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind == token.KeywordOr {
		p.advance()
		opIdx := p.lastIndex
		right, err := p.parseAnd(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		node, err := p.newNode(ast.BinaryOp, opIdx)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, left)
		p.store.AppendChild(node, right)
		left = node
	}
	return left, nil
}

func (p *Parser) parseAnd(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	left, err := p.parseUnary(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind == token.KeywordAnd {
		p.advance()
		opIdx := p.lastIndex
		right, err := p.parseUnary(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		node, err := p.newNode(ast.BinaryOp, opIdx)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, left)
		p.store.AppendChild(node, right)
		left = node
	}
	return left, nil
}

func (p *Parser) parseUnary(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	if p.peek().Kind == token.KeywordNot || p.peek().Kind == token.Minus {
		p.advance()
		opIdx := p.lastIndex
		operand, err := p.parseUnary(depth + 1) // right-associative
		if err != nil {
			return ast.NoIndex, err
		}
		node, err := p.newNode(ast.UnaryOp, opIdx)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, operand)
		return node, nil
	}
	return p.parsePostfix(depth)
}

func (p *Parser) parsePostfix(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	left, err := p.parsePrimary(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	for {
		switch p.peek().Kind {
		case token.Dot:
			p.advance()
			if _, err := p.expect(token.Identifier); err != nil {
				return ast.NoIndex, err
			}
			nameIdx := p.lastIndex
			if p.peek().Kind == token.LParen {
				args, err := p.parseArgs(depth + 1)
				if err != nil {
					return ast.NoIndex, err
				}
				call, err := p.newNode(ast.MethodCall, nameIdx)
				if err != nil {
					return ast.NoIndex, err
				}
				p.store.AppendChild(call, left)
				for _, a := range args {
					p.store.AppendChild(call, a)
				}
				left = call
			} else {
				prop, err := p.newNode(ast.PropertyAccess, nameIdx)
				if err != nil {
					return ast.NoIndex, err
				}
				p.store.AppendChild(prop, left)
				left = prop
			}
		case token.LParen:
			args, err := p.parseArgs(depth + 1)
			if err != nil {
				return ast.NoIndex, err
			}
			call, err := p.newNode(ast.Call, ast.NoIndex)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(call, left)
			for _, a := range args {
				p.store.AppendChild(call, a)
			}
			left = call
		case token.Pipe:
			p.advance()
			opIdx := p.lastIndex
			right, err := p.parseUnary(depth + 1)
			if err != nil {
				return ast.NoIndex, err
			}
			pipe, err := p.newNode(ast.PipeExpr, opIdx)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(pipe, left)
			p.store.AppendChild(pipe, right)
			left = pipe
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseArgs(depth int) ([]int, error) {
	if err := p.checkDepth(depth); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []int
	if p.peek().Kind != token.RParen {
		for {
			arg, err := p.parseExpr(depth + 1)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	t := p.peek()
	switch t.Kind {
	case token.KeywordTry:
		p.advance()
		opIdx := p.lastIndex
		inner, err := p.parsePostfix(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		node, err := p.newNode(ast.TryExpr, opIdx)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, inner)
		return node, nil
	case token.KeywordPartial:
		p.advance()
		opIdx := p.lastIndex
		inner, err := p.parsePostfix(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		node, err := p.newNode(ast.PartialApplication, opIdx)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(node, inner)
		return node, nil
	case token.KeywordThis, token.Identifier:
		p.advance()
		return p.newNode(ast.Identifier, p.lastIndex)
	case token.KeywordTrue, token.KeywordFalse:
		p.advance()
		return p.newNode(ast.BooleanLiteral, p.lastIndex)
	case token.NumberLiteral:
		p.advance()
		node, err := p.newNode(ast.NumberLiteral, p.lastIndex)
		if err == nil && t.IsFloat {
			p.store.SetFlags(node, ast.FlagFloat)
		}
		return node, err
	case token.StringLiteral, token.InterpString:
		p.advance()
		return p.newNode(ast.StringLiteral, p.lastIndex)
	case token.LParen:
		p.advance()
		inner, err := p.parseExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return ast.NoIndex, err
		}
		return inner, nil
	case token.LBracket:
		return p.parseCollectionLiteral(depth)
	case token.KeywordMatch:
		return p.parseMatchExpr(depth)
	case token.LBrace:
		return p.parseBlock(depth)
	case token.EOF:
		return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "expected an expression")
	default:
		return ast.NoIndex, p.errorf(diag.KindInvalidSyntax, "unexpected token %s in expression", t.Kind)
	}
}

func (p *Parser) parseCollectionLiteral(depth int) (int, error) {
	p.advance() // '['
	if p.peek().Kind == token.RBracket {
		p.advance()
		return p.newNode(ast.ListLiteral, ast.NoIndex)
	}

	first, isDict, err := p.parseCollectionElement(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}

	nodeType := ast.ListLiteral
	if isDict {
		nodeType = ast.DictLiteral
	}
	list, err := p.newNode(nodeType, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(list, first)

	for p.peek().Kind == token.Comma {
		p.advance()
		if p.peek().Kind == token.RBracket {
			break // trailing comma
		}
		elem, elemIsDict, err := p.parseCollectionElement(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		if elemIsDict != isDict {
			return ast.NoIndex, p.errorf(diag.KindInvalidSyntax, "cannot mix plain elements and key:value pairs in a collection literal")
		}
		p.store.AppendChild(list, elem)
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return ast.NoIndex, err
	}
	return list, nil
}

func (p *Parser) parseCollectionElement(depth int) (idx int, isDict bool, err error) {
	first, err := p.parseExpr(depth)
	if err != nil {
		return ast.NoIndex, false, err
	}
	if p.peek().Kind != token.Colon {
		return first, false, nil
	}
	p.advance()
	val, err := p.parseExpr(depth)
	if err != nil {
		return ast.NoIndex, false, err
	}
	entry, err := p.newNode(ast.DictEntry, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, false, err
	}
	p.store.AppendChild(entry, first)
	p.store.AppendChild(entry, val)
	return entry, true, nil
}

func (p *Parser) parseMatchExpr(depth int) (int, error) {
	p.advance() // 'match'
	scrutinee, err := p.parseExpr(depth + 1)
	if err != nil {
		return ast.NoIndex, err
	}
	match, err := p.newNode(ast.Match, ast.NoIndex)
	if err != nil {
		return ast.NoIndex, err
	}
	p.store.AppendChild(match, scrutinee)

	if _, err := p.expect(token.LBrace); err != nil {
		return ast.NoIndex, err
	}
	for p.peek().Kind != token.RBrace {
		if p.atEOF() {
			return ast.NoIndex, p.errorf(diag.KindUnexpectedEOF, "unterminated match expression")
		}
		if p.peek().Kind == token.Comma || p.peek().Kind == token.Semicolon {
			p.advance()
			continue
		}
		pattern, err := p.parsePattern(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return ast.NoIndex, err
		}
		body, err := p.parseExpr(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		arm, err := p.newNode(ast.MatchArm, ast.NoIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(arm, pattern)
		p.store.AppendChild(arm, body)
		p.store.AppendChild(match, arm)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return ast.NoIndex, err
	}
	return match, nil
}

func (p *Parser) parsePattern(depth int) (int, error) {
	if err := p.checkDepth(depth); err != nil {
		return ast.NoIndex, err
	}
	t := p.peek()
	switch t.Kind {
	case token.Identifier:
		p.advance()
		ident, err := p.newNode(ast.Identifier, p.lastIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		if p.peek().Kind == token.LParen {
			p.advance()
			pattern, err := p.newNode(ast.Pattern, ast.NoIndex)
			if err != nil {
				return ast.NoIndex, err
			}
			p.store.AppendChild(pattern, ident)
			if p.peek().Kind != token.RParen {
				for {
					sub, err := p.parsePattern(depth + 1)
					if err != nil {
						return ast.NoIndex, err
					}
					p.store.AppendChild(pattern, sub)
					if p.peek().Kind == token.Comma {
						p.advance()
						continue
					}
					break
				}
			}
			if _, err := p.expect(token.RParen); err != nil {
				return ast.NoIndex, err
			}
			return pattern, nil
		}
		pattern, err := p.newNode(ast.Pattern, ast.NoIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(pattern, ident)
		return pattern, nil

	case token.NumberLiteral, token.StringLiteral, token.InterpString, token.KeywordTrue, token.KeywordFalse:
		lit, err := p.parsePrimary(depth + 1)
		if err != nil {
			return ast.NoIndex, err
		}
		pattern, err := p.newNode(ast.Pattern, ast.NoIndex)
		if err != nil {
			return ast.NoIndex, err
		}
		p.store.AppendChild(pattern, lit)
		return pattern, nil

	default:
		return ast.NoIndex, p.errorf(diag.KindInvalidSyntax, "unexpected token %s in pattern", t.Kind)
	}
}
