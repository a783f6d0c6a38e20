package circuit

import "github.com/sweetpea-org/sweetpea-go/internal/cnf"

// nextPowerOfTwo returns the smallest power of two >= n (n >= 1).
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// Popcount reduces n single-bit inputs to a ceil(log2 n)+1-bit bus (LSB
// first) whose binary value equals the number of true inputs. Inputs are
// padded with fresh variables forced false up to the next power of two, and
// adjacent buses are paired and reduced via RippleCarryAdder, deterministic
// in input order; the final carry of each reduction is the most
// significant bit of that bus.
func Popcount(f *cnf.Formula, inputs []cnf.Var) []cnf.Var {
	if len(inputs) == 0 {
		panic("circuit: cannot take popcount of an empty list")
	}

	n := nextPowerOfTwo(len(inputs))
	padded := make([]cnf.Var, n)
	copy(padded, inputs)
	if n > len(inputs) {
		pad := f.Pool.FreshN(n - len(inputs))
		f.ZeroOut(pad)
		copy(padded[len(inputs):], pad)
	}

	bitList := make([][]cnf.Var, n)
	for i, v := range padded {
		bitList[i] = []cnf.Var{v}
	}
	return popcountLayer(f, bitList)
}

func popcountLayer(f *cnf.Formula, bitList [][]cnf.Var) []cnf.Var {
	if len(bitList) == 1 {
		return bitList[0]
	}
	half := len(bitList) / 2
	left := make([][]cnf.Var, half)
	right := make([][]cnf.Var, half)
	for i := 0; i < half; i++ {
		left[i], right[i] = bitList[2*i], bitList[2*i+1]
	}
	next := popcountCompute(f, left, right)
	return popcountLayer(f, next)
}

// popcountCompute pairs each bus in xs with the corresponding bus in ys
// (equal-width buses, each LSB first) and ripple-carry adds them. Pairing
// is deterministic in input order (xs[i] with ys[i]); RippleCarryAdder
// already places the resulting carry at the end of the returned bus, i.e.
// in the most-significant position relative to the sum bits, so no
// reordering is needed between layers.
func popcountCompute(f *cnf.Formula, xs, ys [][]cnf.Var) [][]cnf.Var {
	if len(xs) != len(ys) {
		panic("circuit: popcount requires equal-length halves")
	}
	accum := make([][]cnf.Var, len(xs))
	for i := range xs {
		accum[i] = RippleCarryAdder(f, xs[i], ys[i])
	}
	return accum
}
