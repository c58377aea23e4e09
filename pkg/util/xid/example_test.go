package xid_test

import (
	"fmt"

	"github.com/omeyang/xthreadpool/pkg/util/xid"
)

func ExampleGenerator_NextString() {
	gen, err := xid.NewGenerator(xid.WithMachineID(func() (uint16, error) { return 42, nil }))
	if err != nil {
		panic(err)
	}
	batch, err := gen.NextString()
	if err != nil {
		panic(err)
	}
	id, _ := xid.Parse(batch)
	fmt.Println(id & 0xFFFF)
	// Output: 42
}
