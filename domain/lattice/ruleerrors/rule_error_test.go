package ruleerrors

import (
	"testing"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/pkg/errors"
)

func TestResultFromError(t *testing.T) {
	tests := []struct {
		err            error
		expectedResult externalapi.ProcessResult
		expectedOK     bool
	}{
		{nil, externalapi.ResultProgress, true},
		{errors.Wrapf(ErrFork, "block %s", "abc"), externalapi.ResultFork, true},
		{errors.WithStack(ErrOld), externalapi.ResultOld, true},
		{NewErrMissingDependency(ErrGapSource, externalapi.ZeroHash), externalapi.ResultGapSource, true},
		{errors.New("disk on fire"), 0, false},
		{ErrCemented, 0, false},
	}
	for i, test := range tests {
		result, ok := ResultFromError(test.err)
		if ok != test.expectedOK || (ok && result != test.expectedResult) {
			t.Fatalf("TestResultFromError: test %d: expected (%s, %t) but got (%s, %t)",
				i, test.expectedResult, test.expectedOK, result, ok)
		}
	}
}

func TestMissingDependency(t *testing.T) {
	dependency := externalapi.NewDomainHashFromByteArray(&[32]byte{0xaa})
	err := errors.Wrap(NewErrMissingDependency(ErrGapPrevious, dependency), "processing")

	if !errors.Is(err, ErrGapPrevious) {
		t.Fatalf("TestMissingDependency: expected the error to be ErrGapPrevious")
	}
	if errors.Is(err, ErrGapSource) {
		t.Fatalf("TestMissingDependency: the error unexpectedly is ErrGapSource")
	}
	returnedDependency, ok := MissingDependency(err)
	if !ok || returnedDependency != dependency {
		t.Fatalf("TestMissingDependency: expected dependency %s but got %s, %t", dependency, returnedDependency, ok)
	}
	if _, ok := MissingDependency(ErrFork); ok {
		t.Fatalf("TestMissingDependency: ErrFork unexpectedly carries a dependency")
	}
}
