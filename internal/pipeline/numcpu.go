package pipeline

import "runtime"

func numCPU() int {
	return runtime.NumCPU()
}
