package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/strand-controls/strand-go/pkg/controller"
	"github.com/strand-controls/strand-go/pkg/datatypes"
)

// thermRef addresses one simulated thermocouple channel.
type thermRef struct {
	channel int
	period  controller.Period
}

func (r thermRef) SourceKey() string               { return "therm" }
func (r thermRef) UpdatePeriod() controller.Period { return r.period }

// thermBank simulates a bank of thermocouples drifting towards their
// demanded setpoints.
type thermBank struct {
	mu        sync.Mutex
	actual    map[int]float64
	setpoints map[int]float64
}

func newThermBank(channels int) *thermBank {
	b := &thermBank{
		actual:    make(map[int]float64, channels),
		setpoints: make(map[int]float64, channels),
	}
	for ch := 0; ch < channels; ch++ {
		b.actual[ch] = 20.0
		b.setpoints[ch] = 20.0
	}
	return b
}

func (b *thermBank) SourceKey() string { return "therm" }

// Update reads a channel, stepping the simulation towards the setpoint
// with a little noise.
func (b *thermBank) Update(ctx context.Context, attr *controller.Attribute) error {
	ref, ok := attr.SourceRef().(thermRef)
	if !ok {
		return fmt.Errorf("unexpected ref type %T", attr.SourceRef())
	}

	b.mu.Lock()
	current := b.actual[ref.channel]
	target := b.setpoints[ref.channel]
	step := (target - current) * 0.1
	noise := (rand.Float64() - 0.5) * 0.05
	current = current + step + noise
	b.actual[ref.channel] = current
	b.mu.Unlock()

	return attr.Update(ctx, math.Round(current*100)/100)
}

// Send records a channel's demanded setpoint.
func (b *thermBank) Send(ctx context.Context, attr *controller.Attribute, value any) error {
	ref, ok := attr.SourceRef().(thermRef)
	if !ok {
		return fmt.Errorf("unexpected ref type %T", attr.SourceRef())
	}

	b.mu.Lock()
	b.setpoints[ref.channel] = value.(float64)
	b.mu.Unlock()
	return nil
}

// sensorTemplate describes one rack slot: a readback, a demand and a
// command to snap the simulation straight to its setpoint.
func sensorTemplate(bank *thermBank, channel int) *controller.Template {
	return &controller.Template{
		Attributes: map[string]*controller.Attribute{
			"temperature": controller.NewAttrR(
				datatypes.Float{Units: "C", Prec: 2},
				&controller.AttrConfig{
					Ref:         thermRef{channel: channel, period: controller.Period(500 * time.Millisecond)},
					Description: "Measured temperature",
				},
			),
			"setpoint": controller.NewAttrRW(
				datatypes.Float{Units: "C"},
				&controller.AttrConfig{
					Initial:     20.0,
					Ref:         thermRef{channel: channel},
					Description: "Demanded temperature",
				},
			),
		},
		Commands: map[string]controller.UnboundCommand{
			"settle": {
				Func: func(ctx context.Context, c *controller.Controller) error {
					bank.mu.Lock()
					bank.actual[channel] = bank.setpoints[channel]
					bank.mu.Unlock()
					return nil
				},
				Description: "Snap the simulation to the setpoint",
			},
		},
	}
}

// buildRig assembles the demo tree: a vector of sensors over one shared
// thermocouple bank, plus rack-level status attributes and scans.
func buildRig(sensors int) (*controller.Controller, error) {
	root := controller.New("simulated temperature rig")
	bank := newThermBank(sensors)

	rack := controller.NewVector("sensor rack")
	if err := rack.RegisterSource(bank); err != nil {
		return nil, err
	}
	for ch := 0; ch < sensors; ch++ {
		sensor := controller.New(fmt.Sprintf("thermocouple channel %d", ch))
		if err := controller.Bind(sensor, sensorTemplate(bank, ch)); err != nil {
			return nil, err
		}
		if err := rack.SetIndex(ch, sensor); err != nil {
			return nil, err
		}
	}
	if err := root.AddChild("rack", rack); err != nil {
		return nil, err
	}

	uptime := controller.NewAttrR(datatypes.Int{Units: "s"}, &controller.AttrConfig{
		Description: "Seconds since startup",
	})
	if err := root.AddAttribute("uptime", uptime); err != nil {
		return nil, err
	}

	mean := controller.NewAttrR(datatypes.Float{Units: "C", Prec: 2}, &controller.AttrConfig{
		Description: "Mean rack temperature",
	})
	if err := root.AddAttribute("mean_temperature", mean); err != nil {
		return nil, err
	}

	started := time.Now()
	tick, err := controller.NewScan(func(ctx context.Context) error {
		return uptime.Update(ctx, int64(time.Since(started).Seconds()))
	}, controller.Period(time.Second))
	if err != nil {
		return nil, err
	}
	if err := root.AddScan("tick", tick); err != nil {
		return nil, err
	}

	average, err := controller.NewScan(func(ctx context.Context) error {
		var sum float64
		var n int
		for _, idx := range rack.Indices() {
			sensor, _ := rack.Index(idx)
			attr, _ := sensor.Attribute("temperature")
			if v, ok := attr.Get().(float64); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return nil
		}
		return mean.Update(ctx, sum/float64(n))
	}, controller.Period(2*time.Second))
	if err != nil {
		return nil, err
	}
	if err := root.AddScan("average", average); err != nil {
		return nil, err
	}

	// One startup pass primes every readback before periodic work runs.
	prime, err := controller.NewScan(func(ctx context.Context) error {
		return uptime.Update(ctx, int64(0))
	}, controller.Once)
	if err != nil {
		return nil, err
	}
	if err := root.AddScan("prime", prime); err != nil {
		return nil, err
	}

	return root, nil
}
