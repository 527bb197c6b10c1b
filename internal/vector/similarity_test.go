package vector

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.3, -0.5, 0.8}
		if got := Cosine(v, v); math.Abs(got-1.0) > 1e-6 {
			t.Errorf("Cosine(v, v) = %f, want 1.0", got)
		}
	})
	t.Run("opposite vectors score -1", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{-1, -2, -3}
		if got := Cosine(a, b); math.Abs(got+1.0) > 1e-6 {
			t.Errorf("Cosine(a, -a) = %f, want -1.0", got)
		}
	})
	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		a := []float32{1, 0}
		b := []float32{0, 1}
		if got := Cosine(a, b); got != 0 {
			t.Errorf("Cosine(orthogonal) = %f, want 0", got)
		}
	})
	t.Run("zero vector scores 0", func(t *testing.T) {
		a := []float32{0, 0, 0}
		b := []float32{1, 2, 3}
		if got := Cosine(a, b); got != 0 {
			t.Errorf("Cosine(zero, b) = %f, want 0", got)
		}
		if got := Cosine(a, a); got != 0 {
			t.Errorf("Cosine(zero, zero) = %f, want 0", got)
		}
	})
	t.Run("length mismatch scores 0", func(t *testing.T) {
		if got := Cosine([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
			t.Errorf("Cosine(mismatched) = %f, want 0", got)
		}
	})
	t.Run("scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{10, 20, 30}
		if got := Cosine(a, b); math.Abs(got-1.0) > 1e-6 {
			t.Errorf("Cosine(a, 10a) = %f, want 1.0", got)
		}
	})
}

func TestMean(t *testing.T) {
	t.Run("averages element-wise", func(t *testing.T) {
		got := Mean([][]float32{{1, 0, 3}, {3, 2, 1}})
		want := []float32{2, 1, 2}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Mean[%d] = %f, want %f", i, got[i], want[i])
			}
		}
	})
	t.Run("single vector is identity", func(t *testing.T) {
		got := Mean([][]float32{{0.5, -0.5}})
		if got[0] != 0.5 || got[1] != -0.5 {
			t.Errorf("Mean(single) = %v", got)
		}
	})
	t.Run("empty input returns nil", func(t *testing.T) {
		if got := Mean(nil); got != nil {
			t.Errorf("Mean(nil) = %v, want nil", got)
		}
	})
	t.Run("mismatched lengths return nil", func(t *testing.T) {
		if got := Mean([][]float32{{1, 2}, {1, 2, 3}}); got != nil {
			t.Errorf("Mean(mismatched) = %v, want nil", got)
		}
	})
}

func TestL2Norm(t *testing.T) {
	if got := l2Norm([]float32{3, 4}); math.Abs(got-5.0) > 1e-9 {
		t.Errorf("l2Norm([3,4]) = %f, want 5", got)
	}
	if got := l2Norm(nil); got != 0 {
		t.Errorf("l2Norm(nil) = %f, want 0", got)
	}
}
