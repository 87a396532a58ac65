// Package utils contains small helpers shared by the meshkit packages.
package utils

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
	quarterProcs := float64(ParallelFactor) * .25
	if quarterProcs > 8 {
		ParallelFactor = int(quarterProcs)
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated group count.
	BeforeParallelGroupWorkFunc func(numGroups int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int)
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel splits [0, totalSize) into contiguous groups and runs each group on its
// own goroutine. A panic inside a group is returned as an error instead of crashing the
// process. Groups that have not started when ctx is done are skipped.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	numGroups := ParallelFactor
	if totalSize < numGroups {
		numGroups = totalSize
	}
	if numGroups <= 0 {
		if before != nil {
			before(0)
		}
		return ctx.Err()
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	if before != nil {
		before(numGroups)
	}

	var (
		wait  sync.WaitGroup
		errMu sync.Mutex
		err   error
	)
	storeError := func(e error) {
		errMu.Lock()
		defer errMu.Unlock()
		err = multierr.Combine(err, e)
	}

	runGroup := func(groupNum int) {
		if ctx.Err() != nil {
			return
		}
		thisGroupSize := groupSize
		thisExtra := 0
		if groupNum == (numGroups - 1) {
			thisExtra = extra
			thisGroupSize += thisExtra
		}
		from := groupSize * groupNum
		to := (groupSize * (groupNum + 1)) + thisExtra
		memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
		if memberWork != nil {
			memberNum := 0
			for workNum := from; workNum < to; workNum++ {
				memberWork(memberNum, workNum)
				memberNum++
			}
		}
		if groupWorkDone != nil {
			groupWorkDone()
		}
	}

	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		// Done is signaled by exactly one of the two callbacks.
		utils.PanicCapturingGoWithCallback(func() {
			runGroup(groupNum)
			wait.Done()
		}, func(thePanic interface{}) {
			storeError(errors.Errorf("panic in parallel group %d: %v", groupNum, thePanic))
			wait.Done()
		})
	}
	wait.Wait()
	return multierr.Combine(err, ctx.Err())
}
