// Package parser builds the AST (pkg/ast) from the token stream
// produced by pkg/lexer, via precedence-climbing recursive descent
// (spec §4.4). Grounded on the teacher's pkg/parser/parser.go
// (curToken/peekToken/nextToken/expectPeek shape, ParseStatement
// switch) and pkg/parser/ddl_parser.go (CREATE TABLE column-constraint
// loop), regeneralized to EssaDB's grammar and SQLError{Message,Offset}
// error shape instead of the teacher's []string accumulation.
package parser

import (
	"strconv"
	"strings"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/lexer"
	"github.com/essadb/essadb/pkg/token"
	"github.com/essadb/essadb/pkg/value"
)

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token
}

func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.Next()
}

func (p *Parser) curIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t token.Type) error {
	if p.curToken.Type == t {
		return nil
	}
	return errf(p.curToken.Offset, "Unexpected token '%s', expected %s", p.curToken.Literal, t)
}

// advanceIfExpect checks the current token, advances past it on
// success, and errors otherwise.
func (p *Parser) advanceIfExpect(t token.Type) error {
	if err := p.expect(t); err != nil {
		return err
	}
	p.nextToken()
	return nil
}

// ParseStatement parses exactly one statement (optionally terminated
// by a semicolon), per the statement grammar of spec §4.4.
func ParseStatement(input string) (ast.Statement, error) {
	p := New(input)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.curIs(token.SEMICOLON) {
		p.nextToken()
	}
	if !p.curIs(token.EOF) {
		return nil, errf(p.curToken.Offset, "Unexpected token '%s' after statement", p.curToken.Literal)
	}
	return stmt, nil
}

// ParseExpr parses a single standalone expression, used to re-parse a
// CHECK clause or DEFAULT expression stored as source text.
func ParseExpr(input string) (ast.Expression, error) {
	p := New(input)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.curIs(token.EOF) {
		return nil, errf(p.curToken.Offset, "Unexpected token '%s' after expression", p.curToken.Literal)
	}
	return expr, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curToken.Type {
	case token.SELECT:
		return p.parseSelectOrUnion()
	case token.INSERT:
		return p.parseInsert()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	case token.CREATE:
		return p.parseCreateTable()
	case token.DROP:
		return p.parseDropTable()
	case token.TRUNCATE:
		return p.parseTruncateTable()
	case token.ALTER:
		return p.parseAlterTable()
	case token.IMPORT:
		return p.parseImport()
	case token.SHOW:
		return p.parseShow()
	case token.PAREN_OPEN:
		return p.parseSelectOrUnion()
	default:
		return nil, errf(p.curToken.Offset, "Unexpected token '%s'", p.curToken.Literal)
	}
}

// --- SELECT and UNION ---

func (p *Parser) parseSelectOrUnion() (ast.Statement, error) {
	left, err := p.parseParenOrPlainSelect()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.UNION) {
		p.nextToken()
		all := false
		if p.curIs(token.ALL) {
			all = true
			p.nextToken()
		}
		right, err := p.parseParenOrPlainSelect()
		if err != nil {
			return nil, err
		}
		left = &ast.Union{Left: left, Right: right, All: all}
	}
	return left, nil
}

func (p *Parser) parseParenOrPlainSelect() (ast.Statement, error) {
	if p.curIs(token.PAREN_OPEN) {
		p.nextToken()
		s, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
			return nil, err
		}
		return s, nil
	}
	return p.parseSelect()
}

func (p *Parser) parseSelect() (*ast.Select, error) {
	if err := p.advanceIfExpect(token.SELECT); err != nil {
		return nil, err
	}
	sel := &ast.Select{}

	if p.curIs(token.DISTINCT) {
		sel.Distinct = true
		p.nextToken()
	}

	if p.curIs(token.TOP) {
		p.nextToken()
		if !p.curIs(token.NUMBER_INT) {
			return nil, errf(p.curToken.Offset, "Expected integer after TOP")
		}
		n, _ := strconv.Atoi(p.curToken.Literal)
		p.nextToken()
		percent := false
		if p.curIs(token.PERC) {
			percent = true
			p.nextToken()
		}
		sel.Top = &ast.TopClause{Count: n, Percent: percent}
	}

	if p.curIs(token.ASTERISK) {
		sel.Star = true
		p.nextToken()
	} else {
		cols, err := p.parseSelectColumns()
		if err != nil {
			return nil, err
		}
		sel.Columns = cols
	}

	if p.curIs(token.INTO) {
		p.nextToken()
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		sel.Into = p.curToken.Literal
		p.nextToken()
	}

	if p.curIs(token.FROM) {
		p.nextToken()
		te, err := p.parseTableExpression()
		if err != nil {
			return nil, err
		}
		sel.From = te
	}

	if p.curIs(token.WHERE) {
		p.nextToken()
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sel.Where = w
	}

	if p.curIs(token.GROUP) || p.curIs(token.PARTITION) {
		kind := ast.GroupBy
		if p.curIs(token.PARTITION) {
			kind = ast.PartitionBy
		}
		p.nextToken()
		if err := p.advanceIfExpect(token.BY); err != nil {
			return nil, err
		}
		names, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		sel.GroupKind = kind
		sel.GroupBy = names
	}

	if p.curIs(token.HAVING) {
		p.nextToken()
		h, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sel.Having = h
	}

	if p.curIs(token.ORDER) {
		p.nextToken()
		if err := p.advanceIfExpect(token.BY); err != nil {
			return nil, err
		}
		obs, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		sel.OrderBy = obs
	}

	return sel, nil
}

func (p *Parser) parseSelectColumns() ([]ast.SelectColumn, error) {
	var cols []ast.SelectColumn
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		alias := ""
		if p.curIs(token.AS) {
			p.nextToken()
			if err := p.expect(token.IDENT); err != nil {
				return nil, err
			}
			alias = p.curToken.Literal
			p.nextToken()
		}
		cols = append(cols, ast.SelectColumn{Expr: e, Alias: alias})
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return cols, nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	var names []string
	for {
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		names = append(names, p.curToken.Literal)
		p.nextToken()
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return names, nil
}

func (p *Parser) parseOrderByList() ([]ast.OrderColumn, error) {
	var obs []ast.OrderColumn
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		if p.curIs(token.ASC) {
			p.nextToken()
		} else if p.curIs(token.DESC) {
			desc = true
			p.nextToken()
		}
		obs = append(obs, ast.OrderColumn{Expr: e, Desc: desc})
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return obs, nil
}

// --- Table expressions (spec §4.4) ---

func (p *Parser) parseTableExpression() (ast.TableExpression, error) {
	left, err := p.parseTableExpressionPrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.curIs(token.COMMA):
			p.nextToken()
			right, err := p.parseTableExpressionPrimary()
			if err != nil {
				return nil, err
			}
			left = &ast.CrossJoin{Left: left, Right: right}
		case p.curIs(token.INNER) || p.curIs(token.LEFT) || p.curIs(token.RIGHT) || p.curIs(token.OUTER) || p.curIs(token.JOIN):
			kind := ast.InnerJoin
			switch p.curToken.Type {
			case token.LEFT:
				kind = ast.LeftJoin
			case token.RIGHT:
				kind = ast.RightJoin
			case token.OUTER:
				kind = ast.OuterJoin
			}
			if !p.curIs(token.JOIN) {
				p.nextToken()
			}
			if err := p.advanceIfExpect(token.JOIN); err != nil {
				return nil, err
			}
			right, err := p.parseTableExpressionPrimary()
			if err != nil {
				return nil, err
			}
			if err := p.advanceIfExpect(token.ON); err != nil {
				return nil, err
			}
			// Each side of ON may carry a table qualifier (a.id); only
			// the column name is kept.
			joinCol := func() (string, error) {
				if err := p.expect(token.IDENT); err != nil {
					return "", err
				}
				col := p.curToken.Literal
				p.nextToken()
				if p.curIs(token.DOT) {
					p.nextToken()
					if err := p.expect(token.IDENT); err != nil {
						return "", err
					}
					col = p.curToken.Literal
					p.nextToken()
				}
				return col, nil
			}
			lcol, err := joinCol()
			if err != nil {
				return nil, err
			}
			if err := p.advanceIfExpect(token.EQ); err != nil {
				return nil, err
			}
			rcol, err := joinCol()
			if err != nil {
				return nil, err
			}
			left = &ast.Join{Kind: kind, Left: left, Right: right, LeftCol: lcol, RightCol: rcol}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseTableExpressionPrimary() (ast.TableExpression, error) {
	if p.curIs(token.PAREN_OPEN) {
		p.nextToken()
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
			return nil, err
		}
		as := ""
		if p.curIs(token.AS) {
			p.nextToken()
		}
		if p.curIs(token.IDENT) {
			as = p.curToken.Literal
			p.nextToken()
		}
		return &ast.SubSelect{Select: sel, As: as}, nil
	}

	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	name := p.curToken.Literal
	p.nextToken()
	as := ""
	if p.curIs(token.AS) {
		p.nextToken()
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		as = p.curToken.Literal
		p.nextToken()
	} else if p.curIs(token.IDENT) {
		as = p.curToken.Literal
		p.nextToken()
	}
	return &ast.TableRef{TableName: name, As: as}, nil
}

// --- Expressions: OR < AND < NOT < comparison < additive <
// multiplicative < unary < postfix (spec §4.4) ---

func (p *Parser) parseExpr() (ast.Expression, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.OR) {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{LHS: left, Op: ast.OpOr, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.AND) {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{LHS: left, Op: ast.OpAnd, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.curIs(token.NOT) {
		p.nextToken()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		// NOT e ≡ (e = false), expressed via BinaryOp so the evaluator
		// has a single boolean-connective node to handle alongside AND/OR.
		return &ast.BinaryOp{LHS: operand, Op: "NOT", RHS: &ast.Literal{Value: value.NewNull()}}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	switch p.curToken.Type {
	case token.EQ, token.NOT_EQ, token.LT, token.GT, token.LTE, token.GTE:
		op := map[token.Type]ast.BinaryOperator{
			token.EQ: ast.OpEq, token.NOT_EQ: ast.OpNotEq, token.LT: ast.OpLt,
			token.GT: ast.OpGt, token.LTE: ast.OpLtEq, token.GTE: ast.OpGtEq,
		}[p.curToken.Type]
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{LHS: left, Op: op, RHS: right}, nil

	case token.LIKE:
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{LHS: left, Op: ast.OpLike, RHS: right}, nil

	case token.MATCH:
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{LHS: left, Op: ast.OpMatch, RHS: right}, nil

	case token.BETWEEN:
		p.nextToken()
		min, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if err := p.advanceIfExpect(token.AND); err != nil {
			return nil, err
		}
		max, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.Between{LHS: left, Min: min, Max: max}, nil

	case token.IN:
		p.nextToken()
		args, err := p.parseParenExprList()
		if err != nil {
			return nil, err
		}
		return &ast.In{LHS: left, Args: args}, nil

	case token.IS:
		p.nextToken()
		kind := ast.IsNull
		if p.curIs(token.NOT) {
			kind = ast.IsNotNull
			p.nextToken()
		}
		if err := p.advanceIfExpect(token.NULL); err != nil {
			return nil, err
		}
		return &ast.Is{LHS: left, Kind: kind}, nil
	}
	return left, nil
}

func (p *Parser) parseParenExprList() ([]ast.Expression, error) {
	if err := p.advanceIfExpect(token.PAREN_OPEN); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for !p.curIs(token.PAREN_CLOSE) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		op := ast.ArithAdd
		if p.curIs(token.MINUS) {
			op = ast.ArithSub
		}
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.ArithmeticOp{LHS: left, Op: op, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.ASTERISK) || p.curIs(token.SLASH) {
		op := ast.ArithMul
		if p.curIs(token.SLASH) {
			op = ast.ArithDiv
		}
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.ArithmeticOp{LHS: left, Op: op, RHS: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.curIs(token.MINUS) {
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.curToken.Type {
	case token.NUMBER_INT:
		n, err := strconv.ParseInt(p.curToken.Literal, 10, 32)
		if err != nil {
			return nil, errf(p.curToken.Offset, "'%s' is not a valid int", p.curToken.Literal)
		}
		p.nextToken()
		return &ast.Literal{Value: value.NewInt(int32(n))}, nil

	case token.NUMBER_FLOAT:
		f, err := strconv.ParseFloat(p.curToken.Literal, 32)
		if err != nil {
			return nil, errf(p.curToken.Offset, "'%s' is not a valid float", p.curToken.Literal)
		}
		p.nextToken()
		return &ast.Literal{Value: value.NewFloat(float32(f))}, nil

	case token.STRING:
		s := p.curToken.Literal
		p.nextToken()
		return &ast.Literal{Value: value.NewVarchar(s)}, nil

	case token.DATE:
		lit := p.curToken.Literal
		offset := p.curToken.Offset
		p.nextToken()
		v, err := value.FromString(value.Time, lit)
		if err != nil {
			return nil, errf(offset, "%s", err.Error())
		}
		return &ast.Literal{Value: v}, nil

	case token.BOOL:
		b := p.curToken.Literal == "true"
		p.nextToken()
		return &ast.Literal{Value: value.NewBool(b)}, nil

	case token.NULL:
		p.nextToken()
		return &ast.Literal{Value: value.NewNull()}, nil

	case token.ASTERISK:
		// Bare '*' only appears as a whole projection; parsePrimary is
		// never called in that context, but guard anyway.
		return nil, errf(p.curToken.Offset, "Unexpected token '*'")

	case token.PAREN_OPEN:
		p.nextToken()
		if p.curIs(token.SELECT) {
			sel, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
				return nil, err
			}
			return &ast.ScalarSelect{Select: sel}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
			return nil, err
		}
		return e, nil

	case token.CASE:
		return p.parseCase()

	case token.MINUS:
		return p.parseUnary()

	case token.IDENT:
		return p.parseIdentifierOrCall()

	default:
		if isAggregateKeyword(p.curToken.Literal) {
			return p.parseIdentifierOrCall()
		}
		return nil, errf(p.curToken.Offset, "Unexpected token '%s'", p.curToken.Literal)
	}
}

var aggregateNames = map[string]ast.AggregateKind{
	"COUNT": ast.AggCount, "SUM": ast.AggSum, "MIN": ast.AggMin, "MAX": ast.AggMax, "AVG": ast.AggAvg,
}

func isAggregateKeyword(lit string) bool {
	_, ok := aggregateNames[strings.ToUpper(lit)]
	return ok
}

func (p *Parser) parseIdentifierOrCall() (ast.Expression, error) {
	name := p.curToken.Literal
	p.nextToken()

	if p.curIs(token.DOT) {
		p.nextToken()
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		col := p.curToken.Literal
		p.nextToken()
		return &ast.Identifier{Table: name, Name: col}, nil
	}

	if p.curIs(token.PAREN_OPEN) {
		upper := strings.ToUpper(name)
		if kind, ok := aggregateNames[upper]; ok {
			p.nextToken()
			var inner ast.Expression
			if p.curIs(token.ASTERISK) {
				p.nextToken()
				inner = &ast.Literal{Value: value.NewInt(1)}
			} else {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				inner = e
			}
			if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
				return nil, err
			}
			return &ast.Aggregate{Kind: kind, Expr: inner}, nil
		}

		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Function{Name: upper, Args: args}, nil
	}

	return &ast.Identifier{Name: name}, nil
}

func (p *Parser) parseCallArgs() ([]ast.Expression, error) {
	if err := p.advanceIfExpect(token.PAREN_OPEN); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for !p.curIs(token.PAREN_CLOSE) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseCase() (ast.Expression, error) {
	p.nextToken() // consume CASE
	c := &ast.Case{}
	for p.curIs(token.WHEN) {
		p.nextToken()
		when, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.advanceIfExpect(token.THEN); err != nil {
			return nil, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, ast.WhenClause{When: when, Then: then})
	}
	if len(c.Whens) == 0 {
		return nil, errf(p.curToken.Offset, "Expected WHEN in CASE expression")
	}
	if p.curIs(token.ELSE) {
		p.nextToken()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Else = e
	}
	if err := p.advanceIfExpect(token.END); err != nil {
		return nil, err
	}
	return c, nil
}
