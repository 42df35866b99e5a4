package main

import (
	"fmt"

	"github.com/voidshard/pms/pkg/pilot"
)

const (
	docPilot = `Read or edit a pilot config file.

  pilot-config --file pilot.json list
  pilot-config --file pilot.json get KEY
  pilot-config --file pilot.json set KEY VALUE
  pilot-config --file pilot.json delete KEY`
)

type optsPilot struct {
	File string `long:"file" env:"PMS_PILOT_CONFIG" description:"Pilot config file" required:"yes"`

	Args struct {
		Action string `positional-arg-name:"action" description:"list, get, set or delete"`
		Key    string `positional-arg-name:"key"`
		Value  string `positional-arg-name:"value"`
	} `positional-args:"yes"`
}

func (c *optsPilot) Execute(args []string) error {
	cfg, err := pilot.New(c.File)
	if err != nil {
		return err
	}

	switch c.Args.Action {
	case "", "list":
		for _, k := range cfg.Keys() {
			v, _ := cfg.Get(k)
			fmt.Printf("%s=%v\n", k, v)
		}
		return nil
	case "get":
		v, ok := cfg.Get(c.Args.Key)
		if !ok {
			return fmt.Errorf("%s is not set", c.Args.Key)
		}
		fmt.Println(v)
		return nil
	case "set":
		if c.Args.Key == "" {
			return fmt.Errorf("set needs a key")
		}
		cfg.Set(c.Args.Key, c.Args.Value)
		return cfg.Write()
	case "delete":
		cfg.Delete(c.Args.Key)
		return cfg.Write()
	default:
		return fmt.Errorf("unknown action %q", c.Args.Action)
	}
}
