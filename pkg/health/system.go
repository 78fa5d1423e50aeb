// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package health

import (
	"fmt"
	"runtime"
	"syscall"
)

const (
	MemoryThresholdHealthy  = 70.0
	MemoryThresholdDegraded = 85.0
	DiskThresholdHealthy    = 70.0
	DiskThresholdDegraded   = 85.0
)

// CheckResources reports the mailbox process's memory, disk, and
// goroutine usage.
func CheckResources() *ResourceHealth {
	res := &ResourceHealth{Status: StatusHealthy}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	res.MemoryUsedMB = m.Alloc / 1024 / 1024
	res.MemoryTotalMB = m.Sys / 1024 / 1024
	if res.MemoryTotalMB > 0 {
		res.MemoryPercent = float64(res.MemoryUsedMB) / float64(res.MemoryTotalMB) * 100
	}

	res.GoRoutines = runtime.NumGoroutine()

	var stat syscall.Statfs_t
	if err := syscall.Statfs(".", &stat); err == nil {
		totalBytes := stat.Blocks * uint64(stat.Bsize)
		freeBytes := stat.Bfree * uint64(stat.Bsize)
		usedBytes := totalBytes - freeBytes

		res.DiskTotalGB = totalBytes / 1024 / 1024 / 1024
		res.DiskUsedGB = usedBytes / 1024 / 1024 / 1024
		if res.DiskTotalGB > 0 {
			res.DiskPercent = float64(res.DiskUsedGB) / float64(res.DiskTotalGB) * 100
		}
	} else {
		res.Error = fmt.Sprintf("disk stats: %v", err)
	}

	if res.MemoryPercent >= MemoryThresholdDegraded || res.DiskPercent >= DiskThresholdDegraded {
		res.Status = StatusUnhealthy
	} else if res.MemoryPercent >= MemoryThresholdHealthy || res.DiskPercent >= DiskThresholdHealthy {
		res.Status = StatusDegraded
	}

	return res
}
