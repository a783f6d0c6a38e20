// Package circuit builds combinational arithmetic circuits — half-adders,
// full-adders, ripple-carry adders, and the popcount tree used by the
// cardinality encoder — as Tseitin-style biconditional CNF over fresh
// variables in a cnf.Formula.
package circuit

import "github.com/sweetpea-org/sweetpea-go/internal/cnf"

// Bit is a single wire of a multi-bit bus: either a constructed variable or
// a fixed constant (used for the padding bits a popcount tree forces false).
type Bit = cnf.Var

// HalfAdder adds two single bits and returns (carry, sum) as fresh
// variables, with sum <-> a XOR b and carry <-> a AND b asserted as CNF
// biconditionals over f.
func HalfAdder(f *cnf.Formula, a, b cnf.Var) (carry, sum cnf.Var) {
	sum = f.Pool.Fresh()
	carry = f.Pool.Fresh()

	// sum <-> a XOR b
	f.AddClauseContext("half-adder sum", -sum.Lit(), -a.Lit(), -b.Lit())
	f.AddClauseContext("half-adder sum", -sum.Lit(), a.Lit(), b.Lit())
	f.AddClauseContext("half-adder sum", sum.Lit(), a.Lit(), -b.Lit())
	f.AddClauseContext("half-adder sum", sum.Lit(), -a.Lit(), b.Lit())

	// carry <-> a AND b
	f.AddClauseContext("half-adder carry", -carry.Lit(), a.Lit())
	f.AddClauseContext("half-adder carry", -carry.Lit(), b.Lit())
	f.AddClauseContext("half-adder carry", carry.Lit(), -a.Lit(), -b.Lit())

	return carry, sum
}

// FullAdder adds two bits plus an incoming carry and returns (carry, sum)
// as fresh variables.
func FullAdder(f *cnf.Formula, a, b, cin cnf.Var) (carry, sum cnf.Var) {
	sum = f.Pool.Fresh()
	carry = f.Pool.Fresh()

	// sum <-> a XOR b XOR cin: for each of the 8 assignments to (a,b,cin)
	// there is exactly one forbidden value of sum (the one that violates
	// parity); each forbidden combination becomes a 4-literal clause that
	// excludes it.
	for _, a1 := range []bool{false, true} {
		for _, b1 := range []bool{false, true} {
			for _, c1 := range []bool{false, true} {
				parity := (a1 != b1) != c1
				f.AddClauseContext("full-adder sum",
					litExcluding(a, a1), litExcluding(b, b1), litExcluding(cin, c1), litExcluding(sum, !parity))
			}
		}
	}

	// carry <-> majority(a, b, cin)
	f.AddClauseContext("full-adder carry", -carry.Lit(), a.Lit(), b.Lit())
	f.AddClauseContext("full-adder carry", -carry.Lit(), a.Lit(), cin.Lit())
	f.AddClauseContext("full-adder carry", -carry.Lit(), b.Lit(), cin.Lit())
	f.AddClauseContext("full-adder carry", carry.Lit(), -a.Lit(), -b.Lit())
	f.AddClauseContext("full-adder carry", carry.Lit(), -a.Lit(), -cin.Lit())
	f.AddClauseContext("full-adder carry", carry.Lit(), -b.Lit(), -cin.Lit())

	return carry, sum
}

// litExcluding returns the literal that rules out v having been assigned
// value: -v if value is true, v if value is false.
func litExcluding(v cnf.Var, value bool) int {
	if value {
		return -v.Lit()
	}
	return v.Lit()
}

// RippleCarryAdder adds two k-bit buses (LSB first) using one half-adder
// and k-1 full-adders chained by carry, returning the (k+1)-bit sum
// (LSB first, with the final carry as the most significant bit).
func RippleCarryAdder(f *cnf.Formula, xs, ys []cnf.Var) []cnf.Var {
	if len(xs) != len(ys) {
		panic("circuit: ripple-carry adder requires equal-length buses")
	}
	k := len(xs)
	sum := make([]cnf.Var, 0, k+1)
	var carry cnf.Var
	var s cnf.Var

	carry, s = HalfAdder(f, xs[0], ys[0])
	sum = append(sum, s)
	for i := 1; i < k; i++ {
		carry, s = FullAdder(f, xs[i], ys[i], carry)
		sum = append(sum, s)
	}
	sum = append(sum, carry)
	return sum
}
