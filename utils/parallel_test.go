package utils

import (
	"context"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, size := range []int{0, 1, 3, ParallelFactor, 10*ParallelFactor + 3} {
		visits := make([]int32, size)
		var groups, done int32
		err := GroupWorkParallel(
			context.Background(),
			size,
			func(numGroups int) {
				groups = int32(numGroups)
			},
			func(_, _, _, _ int) (MemberWorkFunc, GroupWorkDoneFunc) {
				return func(_, workNum int) {
						atomic.AddInt32(&visits[workNum], 1)
					}, func() {
						atomic.AddInt32(&done, 1)
					}
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, done, test.ShouldEqual, groups)
		for _, v := range visits {
			test.That(t, v, test.ShouldEqual, int32(1))
		}
	}
}

func TestGroupWorkParallelPanic(t *testing.T) {
	err := GroupWorkParallel(context.Background(), 4, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			if groupNum == 0 {
				panic("whoops")
			}
			return nil, nil
		})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "whoops")
}

func TestGroupWorkParallelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran int32
	err := GroupWorkParallel(ctx, 100, nil,
		func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
			atomic.AddInt32(&ran, 1)
			return nil, nil
		})
	test.That(t, err, test.ShouldBeError, context.Canceled)
	test.That(t, ran, test.ShouldEqual, int32(0))
}
