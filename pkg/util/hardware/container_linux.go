// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package hardware

import (
	"os"
	"strings"

	"github.com/containerd/cgroups/v3"
	"github.com/containerd/cgroups/v3/cgroup1"
	"github.com/containerd/cgroups/v3/cgroup2"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/lk2023060901/matprops-go/pkg/log"
)

// inContainer checks if the service is running inside a container.
func inContainer() (bool, error) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, nil
	}
	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	s := string(data)
	return strings.Contains(s, "docker") || strings.Contains(s, "kubepods") || strings.Contains(s, "containerd"), nil
}

// getContainerMemLimit returns memory limit of the current cgroup.
func getContainerMemLimit() (uint64, error) {
	if cgroups.Mode() == cgroups.Unified {
		manager, err := cgroup2.Load("/")
		if err != nil {
			return 0, err
		}
		stats, err := manager.Stat()
		if err != nil {
			return 0, err
		}
		return stats.GetMemory().GetUsageLimit(), nil
	}

	control, err := cgroup1.Load(cgroup1.RootPath)
	if err != nil {
		return 0, err
	}
	stats, err := control.Stat(cgroup1.IgnoreNotExist)
	if err != nil {
		return 0, err
	}
	return stats.GetMemory().GetUsage().GetLimit(), nil
}

func initMaxprocs() (func(), error) {
	return maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.S().Infof(format, args...)
	}))
}
