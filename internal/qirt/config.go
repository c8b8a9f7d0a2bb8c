package qirt

import goruntime "runtime"

func defaultWorkerCount() int {
	n := goruntime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
