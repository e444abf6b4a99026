package parser

import (
	"strings"

	"github.com/essadb/essadb/pkg/ast"
	"github.com/essadb/essadb/pkg/token"
	"github.com/essadb/essadb/pkg/value"
)

// --- CREATE / DROP / TRUNCATE / ALTER TABLE (spec §4.8) ---

func (p *Parser) parseCreateTable() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.CREATE); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.TABLE); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	ct := &ast.CreateTable{Table: p.curToken.Literal}
	p.nextToken()

	if err := p.advanceIfExpect(token.PAREN_OPEN); err != nil {
		return nil, err
	}
	for {
		if p.curIs(token.CONSTRAINT) || p.curIs(token.CHECK) {
			name := ""
			if p.curIs(token.CONSTRAINT) {
				p.nextToken()
				if err := p.expect(token.IDENT); err != nil {
					return nil, err
				}
				name = p.curToken.Literal
				p.nextToken()
			}
			if err := p.advanceIfExpect(token.CHECK); err != nil {
				return nil, err
			}
			if err := p.advanceIfExpect(token.PAREN_OPEN); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
				return nil, err
			}
			ct.Checks = append(ct.Checks, ast.NamedCheck{Name: name, Expr: e})
		} else {
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			ct.Columns = append(ct.Columns, col)
		}
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
		return nil, err
	}

	if p.curIs(token.ENGINE) {
		p.nextToken()
		if err := p.advanceIfExpect(token.EQ); err != nil {
			return nil, err
		}
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		if strings.EqualFold(p.curToken.Literal, "EDB") {
			ct.Engine = ast.EngineEDB
		}
		p.nextToken()
	}

	return ct, nil
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, error) {
	if err := p.expect(token.IDENT); err != nil {
		return ast.ColumnDef{}, err
	}
	col := ast.ColumnDef{Name: p.curToken.Literal}
	p.nextToken()

	if err := p.expect(token.IDENT); err != nil {
		return ast.ColumnDef{}, err
	}
	typ, ok := value.TypeFromString(p.curToken.Literal)
	if !ok {
		return ast.ColumnDef{}, errf(p.curToken.Offset, "Unknown column type '%s'", p.curToken.Literal)
	}
	col.Type = typ
	p.nextToken()

	for {
		switch p.curToken.Type {
		case token.NOT:
			p.nextToken()
			if err := p.advanceIfExpect(token.NULL); err != nil {
				return ast.ColumnDef{}, err
			}
			col.NotNull = true
		case token.UNIQUE:
			p.nextToken()
			col.Unique = true
		case token.AUTO_INCREMENT:
			p.nextToken()
			col.AutoIncrement = true
		case token.PRIMARY:
			p.nextToken()
			if err := p.advanceIfExpect(token.KEY); err != nil {
				return ast.ColumnDef{}, err
			}
			col.PrimaryKey = true
		case token.DEFAULT:
			p.nextToken()
			e, err := p.parseExpr()
			if err != nil {
				return ast.ColumnDef{}, err
			}
			col.HasDefault = true
			col.Default = e
		case token.FOREIGN:
			p.nextToken()
			if err := p.advanceIfExpect(token.KEY); err != nil {
				return ast.ColumnDef{}, err
			}
			fallthrough
		case token.REFERENCES:
			p.nextToken()
			if err := p.expect(token.IDENT); err != nil {
				return ast.ColumnDef{}, err
			}
			refTable := p.curToken.Literal
			p.nextToken()
			if err := p.advanceIfExpect(token.PAREN_OPEN); err != nil {
				return ast.ColumnDef{}, err
			}
			if err := p.expect(token.IDENT); err != nil {
				return ast.ColumnDef{}, err
			}
			refCol := p.curToken.Literal
			p.nextToken()
			if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
				return ast.ColumnDef{}, err
			}
			col.References = &ast.ColumnRef{Table: refTable, Name: refCol}
		default:
			return col, nil
		}
	}
}

func (p *Parser) parseDropTable() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.DROP); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.TABLE); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	d := &ast.DropTable{Table: p.curToken.Literal}
	p.nextToken()
	return d, nil
}

func (p *Parser) parseTruncateTable() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.TRUNCATE); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.TABLE); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	t := &ast.TruncateTable{Table: p.curToken.Literal}
	p.nextToken()
	return t, nil
}

func (p *Parser) parseAlterTable() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.ALTER); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.TABLE); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	at := &ast.AlterTable{Table: p.curToken.Literal}
	p.nextToken()

	switch p.curToken.Type {
	case token.ADD:
		p.nextToken()
		if p.curIs(token.COLUMN) {
			p.nextToken()
		}
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		at.Action = &ast.AddColumn{Column: col}

	case token.DROP:
		p.nextToken()
		if p.curIs(token.COLUMN) {
			p.nextToken()
		}
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		at.Action = &ast.DropColumn{Name: p.curToken.Literal}
		p.nextToken()

	case token.ALTER:
		p.nextToken()
		if p.curIs(token.COLUMN) {
			p.nextToken()
		}
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		at.Action = &ast.AlterColumnType{Name: col.Name, Column: col}

	default:
		return nil, errf(p.curToken.Offset, "Unexpected token '%s' in ALTER TABLE", p.curToken.Literal)
	}

	return at, nil
}

// --- INSERT / UPDATE / DELETE (spec §4.8) ---

func (p *Parser) parseInsert() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.INSERT); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.INTO); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	ins := &ast.Insert{Table: p.curToken.Literal}
	p.nextToken()

	if p.curIs(token.PAREN_OPEN) {
		p.nextToken()
		names, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		ins.Columns = names
		if err := p.advanceIfExpect(token.PAREN_CLOSE); err != nil {
			return nil, err
		}
	}

	if p.curIs(token.SELECT) {
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		ins.Select = sel
		return ins, nil
	}

	if err := p.advanceIfExpect(token.VALUES); err != nil {
		return nil, err
	}
	for {
		row, err := p.parseParenExprList()
		if err != nil {
			return nil, err
		}
		ins.Rows = append(ins.Rows, row)
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return ins, nil
}

func (p *Parser) parseUpdate() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.UPDATE); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	u := &ast.Update{Table: p.curToken.Literal}
	p.nextToken()

	if err := p.advanceIfExpect(token.SET); err != nil {
		return nil, err
	}
	for {
		if err := p.expect(token.IDENT); err != nil {
			return nil, err
		}
		col := p.curToken.Literal
		p.nextToken()
		if err := p.advanceIfExpect(token.EQ); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		u.Set = append(u.Set, ast.Assignment{Column: col, Value: e})
		if p.curIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if p.curIs(token.WHERE) {
		p.nextToken()
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		u.Where = w
	}
	return u, nil
}

func (p *Parser) parseDelete() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.DELETE); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.FROM); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	d := &ast.Delete{Table: p.curToken.Literal}
	p.nextToken()

	if p.curIs(token.WHERE) {
		p.nextToken()
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Where = w
	}
	return d, nil
}

// --- IMPORT / SHOW (spec §4.8) ---

func (p *Parser) parseImport() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.IMPORT); err != nil {
		return nil, err
	}
	if err := p.expect(token.IDENT); err != nil {
		return nil, err
	}
	imp := &ast.Import{Table: p.curToken.Literal}
	p.nextToken()

	if err := p.expect(token.STRING); err != nil {
		return nil, err
	}
	imp.CSVPath = p.curToken.Literal
	p.nextToken()

	if p.curIs(token.STRING) {
		imp.HintsPath = p.curToken.Literal
		p.nextToken()
	}
	return imp, nil
}

func (p *Parser) parseShow() (ast.Statement, error) {
	if err := p.advanceIfExpect(token.SHOW); err != nil {
		return nil, err
	}
	if err := p.advanceIfExpect(token.TABLES); err != nil {
		return nil, err
	}
	return &ast.Show{Tables: true}, nil
}
