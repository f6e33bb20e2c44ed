// Command asxdemo runs a small countdown task on the asx kernel, closes its
// region, and prints the snapshot and trace digests, demonstrating the
// region and task lifecycle. The task's poll function checks its checkpoint
// for cancellation, but nothing in the demo cancels it.
package main

import (
	"fmt"
	"os"

	"github.com/asxkernel/asx"
)

func main() {
	var clock asx.LogicalTime
	rt, st := asx.New(
		asx.WithHooks(asx.Hooks{
			Clock: asx.ClockHooks{
				LogicalNowNS: func() uint64 { return uint64(clock) },
			},
			Reactor: asx.ReactorHooks{
				GhostWait: func(asx.Budget) asx.Status { clock++; return asx.StatusOK },
			},
		}),
		asx.WithDeterministic(true),
	)
	if st != asx.StatusOK {
		fmt.Fprintln(os.Stderr, "new:", st)
		os.Exit(1)
	}

	region, st := rt.RegionOpen(rt.RootRegion())
	if st != asx.StatusOK {
		fmt.Fprintln(os.Stderr, "region open:", st)
		os.Exit(1)
	}

	remaining := 3
	_, st = rt.TaskSpawn(region, func(ck asx.Checkpoint) asx.PollResult {
		if obs := ck.Observe(); obs.Cancelled {
			return asx.PollResult{Done: true, Outcome: asx.OutcomeCancelled}
		}
		if remaining == 0 {
			return asx.PollResult{Done: true, Outcome: asx.OutcomeOK}
		}
		remaining--
		return asx.PollResult{}
	})
	if st != asx.StatusOK {
		fmt.Fprintln(os.Stderr, "spawn:", st)
		os.Exit(1)
	}

	budget := asx.InfiniteBudget()
	result := rt.Run(region, &budget)
	if result.Status != asx.StatusOK {
		fmt.Fprintln(os.Stderr, "run:", result.Status)
	}

	if st := rt.RegionBeginClose(region); st != asx.StatusOK {
		fmt.Fprintln(os.Stderr, "region begin close:", st)
	}
	if st := rt.RegionClose(region); st != asx.StatusOK {
		fmt.Fprintln(os.Stderr, "region close:", st)
	}

	snap := rt.Snapshot()
	fmt.Printf("snapshot digest: %x\n", snap.Digest)
	fmt.Printf("trace digest: %x (events=%d)\n", rt.TraceDigest(), rt.TraceEventCount())
}
