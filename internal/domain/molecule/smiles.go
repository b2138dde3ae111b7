package molecule

import (
	"strconv"
	"strings"

	"github.com/turtacn/MolFrag/pkg/errors"
)

// organic lists the elements that may appear without brackets.
var organic = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticOrganic lists the lowercase aromatic atoms allowed without brackets.
var aromaticOrganic = map[string]bool{
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
}

// aromaticBracket lists the lowercase symbols allowed inside brackets.
var aromaticBracket = map[string]bool{
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
	"se": true, "as": true, "te": true,
}

type ringOpening struct {
	atom  int
	order BondOrder
	set   bool
}

type smilesParser struct {
	src  string
	pos  int
	mol  *Molecule
	prev int
	// pending bond symbol before the next atom or ring digit
	order    BondOrder
	orderSet bool
	branches []int
	rings    map[int]ringOpening
}

// ParseSMILES reads a SMILES string into a Molecule.
func ParseSMILES(smiles string) (*Molecule, error) {
	s := strings.TrimSpace(smiles)
	if s == "" {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "SMILES must not be empty")
	}
	// Anything after whitespace is a title.
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	p := &smilesParser{src: s, mol: New(), prev: -1, rings: make(map[int]ringOpening)}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.mol, nil
}

func (p *smilesParser) fail(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, format, args...).
		WithDetail("at position " + strconv.Itoa(p.pos) + " in " + strconv.Quote(p.src))
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return p.fail("branch without a preceding atom")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case ch == ')':
			if len(p.branches) == 0 {
				return p.fail("unbalanced ')'")
			}
			if p.orderSet {
				return p.fail("bond symbol before ')'")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case ch == '.':
			if p.orderSet {
				return p.fail("bond symbol before '.'")
			}
			p.prev = -1
			p.pos++
		case strings.IndexByte("-=#:/\\$", ch) >= 0:
			if p.orderSet {
				return p.fail("two consecutive bond symbols")
			}
			p.order, p.orderSet = bondSymbol(ch), true
			p.pos++
		case ch >= '0' && ch <= '9' || ch == '%':
			if err := p.ringClosure(); err != nil {
				return err
			}
		case ch == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.place(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.place(a); err != nil {
				return err
			}
		}
	}
	if len(p.branches) > 0 {
		return p.fail("unclosed branch")
	}
	if len(p.rings) > 0 {
		return p.fail("unclosed ring bond")
	}
	if p.orderSet {
		return p.fail("dangling bond symbol")
	}
	return nil
}

func bondSymbol(ch byte) BondOrder {
	switch ch {
	case '=':
		return Double
	case '#', '$':
		return Triple
	case ':':
		return Aromatic
	default:
		// '/' and '\' carry geometry only.
		return Single
	}
}

// implicitOrder is the order of an unmarked bond between a and b.
func (p *smilesParser) implicitOrder(a, b int) BondOrder {
	if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
		return Aromatic
	}
	return Single
}

func (p *smilesParser) place(a Atom) error {
	idx := p.mol.AddAtom(a)
	if p.prev >= 0 {
		order := p.order
		if !p.orderSet {
			order = p.implicitOrder(p.prev, idx)
		}
		if _, err := p.mol.AddBond(p.prev, idx, order); err != nil {
			return p.fail("%v", err)
		}
	} else if p.orderSet {
		return p.fail("bond symbol without a preceding atom")
	}
	p.prev = idx
	p.orderSet = false
	return nil
}

func (p *smilesParser) ringClosure() error {
	if p.prev < 0 {
		return p.fail("ring bond without a preceding atom")
	}
	var num int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return p.fail("'%%' must be followed by two digits")
		}
		num = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		num = int(p.src[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringOpening{atom: p.prev, order: p.order, set: p.orderSet}
		p.orderSet = false
		return nil
	}
	delete(p.rings, num)

	order := p.implicitOrder(open.atom, p.prev)
	switch {
	case open.set && p.orderSet && open.order != p.order:
		return p.fail("conflicting bond symbols on ring bond %d", num)
	case open.set:
		order = open.order
	case p.orderSet:
		order = p.order
	}
	p.orderSet = false
	if _, err := p.mol.AddBond(open.atom, p.prev, order); err != nil {
		return p.fail("ring bond %d: %v", num, err)
	}
	return nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func (p *smilesParser) organicAtom() (Atom, error) {
	rest := p.src[p.pos:]
	if strings.HasPrefix(rest, "Cl") || strings.HasPrefix(rest, "Br") {
		p.pos += 2
		return Atom{Element: rest[:2]}, nil
	}
	sym := rest[:1]
	switch {
	case sym == "*":
		p.pos++
		return Atom{Element: "*", Attachment: true}, nil
	case organic[sym]:
		p.pos++
		return Atom{Element: sym}, nil
	case aromaticOrganic[sym]:
		p.pos++
		return Atom{Element: strings.ToUpper(sym), Aromatic: true}, nil
	}
	return Atom{}, p.fail("unexpected character %q", sym)
}

// bracketAtom reads [isotope? symbol chirality? hcount? charge? class?].
func (p *smilesParser) bracketAtom() (Atom, error) {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return Atom{}, p.fail("unclosed '['")
	}
	body := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1

	a := Atom{Bracket: true}
	i := 0
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	if i > 0 {
		a.Isotope, _ = strconv.Atoi(body[:i])
	}

	switch {
	case i < len(body) && body[i] == '*':
		a.Element, a.Attachment = "*", true
		i++
	case i+1 < len(body) && aromaticBracket[body[i:i+2]]:
		a.Element, a.Aromatic = strings.ToUpper(body[i:i+1])+body[i+1:i+2], true
		i += 2
	case i < len(body) && aromaticBracket[body[i:i+1]]:
		a.Element, a.Aromatic = strings.ToUpper(body[i:i+1]), true
		i++
	case i < len(body) && body[i] >= 'A' && body[i] <= 'Z':
		j := i + 1
		if j < len(body) && body[j] >= 'a' && body[j] <= 'z' {
			j++
		}
		a.Element = body[i:j]
		i = j
	default:
		return Atom{}, p.fail("bracket atom %q has no element", body)
	}

	for i < len(body) && body[i] == '@' {
		i++
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			a.HCount = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		c := body[i]
		i++
		n := 1
		switch {
		case i < len(body) && isDigit(body[i]):
			j := i
			for j < len(body) && isDigit(body[j]) {
				j++
			}
			n, _ = strconv.Atoi(body[i:j])
			i = j
		default:
			for i < len(body) && body[i] == c {
				n++
				i++
			}
		}
		a.Charge = sign * n
	}

	if i < len(body) && body[i] == ':' {
		j := i + 1
		for j < len(body) && isDigit(body[j]) {
			j++
		}
		class, err := strconv.Atoi(body[i+1 : j])
		if err != nil {
			return Atom{}, p.fail("bad atom class in %q", body)
		}
		if a.Attachment {
			a.Label = class
		}
		i = j
	}

	if i != len(body) {
		return Atom{}, p.fail("unexpected %q in bracket atom", body[i:])
	}
	if a.Attachment && a.Label == 0 && a.Isotope > 0 {
		a.Label, a.Isotope = a.Isotope, 0
	}
	return a, nil
}

//Personal.AI order the ending
