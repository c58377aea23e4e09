package xid

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
)

// EnvMachineID 直接指定机器 ID 的环境变量（0-65535）。
const EnvMachineID = "XID_MACHINE_ID"

// 测试注入点。
var osHostname = os.Hostname

// DefaultMachineID 按以下顺序获取机器 ID：
//
//  1. XID_MACHINE_ID 环境变量
//  2. 主机名的 FNV-1a 哈希（折叠为 16 位）
//
// 哈希方式存在碰撞可能，实例较多时应显式分配。
func DefaultMachineID() (uint16, error) {
	if s := os.Getenv(EnvMachineID); s != "" {
		id, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("xid: invalid %s value %q: %w", EnvMachineID, s, err)
		}
		return uint16(id), nil
	}

	host, err := osHostname()
	if err != nil {
		return 0, fmt.Errorf("xid: hostname: %w", err)
	}
	if host == "" {
		return 0, fmt.Errorf("xid: empty hostname")
	}
	return hashToMachineID(host), nil
}

func hashToMachineID(s string) uint16 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum32()
	return uint16(sum>>16) ^ uint16(sum)
}
