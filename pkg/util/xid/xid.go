package xid

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sony/sonyflake/v2"
)

// Option 配置 Generator。
type Option func(*options)

type options struct {
	machineID func() (uint16, error)
	check     func(uint16) bool
}

// WithMachineID 自定义机器 ID 来源，默认 DefaultMachineID。
func WithMachineID(fn func() (uint16, error)) Option {
	return func(o *options) { o.machineID = fn }
}

// WithCheckMachineID 设置机器 ID 校验函数，返回 false 时 NewGenerator 失败。
func WithCheckMachineID(fn func(uint16) bool) Option {
	return func(o *options) { o.check = fn }
}

// Generator 是并发安全的 ID 生成器。
type Generator struct {
	next func() (int64, error)
}

// NewGenerator 创建生成器。
func NewGenerator(opts ...Option) (*Generator, error) {
	o := options{machineID: DefaultMachineID}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.machineID == nil {
		o.machineID = DefaultMachineID
	}

	st := sonyflake.Settings{
		MachineID: func() (int, error) {
			id, err := o.machineID()
			return int(id), err
		},
	}
	if o.check != nil {
		st.CheckMachineID = func(id int) bool { return o.check(uint16(id)) }
	}

	sf, err := sonyflake.New(st)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &Generator{next: sf.NextID}, nil
}

// Next 返回下一个 ID。
func (g *Generator) Next() (int64, error) {
	id, err := g.next()
	if err != nil {
		if errors.Is(err, sonyflake.ErrOverTimeLimit) {
			return 0, fmt.Errorf("%w: %w", ErrOverTimeLimit, err)
		}
		return 0, fmt.Errorf("xid: next id: %w", err)
	}
	return id, nil
}

// NextString 返回 base36 编码的下一个 ID。
func (g *Generator) NextString() (string, error) {
	id, err := g.Next()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 36), nil
}

// Parse 解析 NextString 的输出，大小写不敏感。
func Parse(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return id, nil
}
