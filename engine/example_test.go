package engine_test

import (
	"fmt"

	"github.com/cwbudde/algo-plug64/effect"
	"github.com/cwbudde/algo-plug64/engine"
)

func ExampleEngine_Process() {
	p, _ := engine.NewParams(effect.Delay)
	_ = p.Set("mastertime", 2)
	_ = p.Set("masterfeedback", 0)
	_ = p.Set("masterwet", 100)

	e, _ := engine.New(p, 1)
	if err := e.Prepare(1000, 8); err != nil {
		panic(err)
	}
	buf := [][]float32{{1, 0, 0, 0, 0}}
	e.Process(buf, 1, engine.NoTempo)
	fmt.Println(buf[0])
	// Output: [0 0 1 0 0]
}

func ExampleResolveTime() {
	fmt.Println(engine.ResolveTime(4, 1000, engine.Tempo{BPM: 120}))
	fmt.Println(engine.ResolveTime(4, 1000, engine.NoTempo))
	// Output:
	// 500
	// 1000
}
