// Package dispatcher turns user intents into host commands.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/host"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
)

// Dispatcher sends commands without touching monitor or toggle state, results are only reported back.
type Dispatcher struct {
	host   host.Host
	prefix string
	seq    atomic.Uint64
}

func NewDispatcher(h host.Host, prefix string) *Dispatcher {
	return &Dispatcher{host: h, prefix: prefix}
}

func (d *Dispatcher) nextToken() string {
	return d.prefix + strconv.FormatUint(d.seq.Add(1), 10)
}

func (d *Dispatcher) RequestRefresh(ctx context.Context) error {
	return d.send(ctx, host.CommandRefreshMonitorInfo, nil)
}

// SwitchInput expects id and input to come from the current snapshot, they are not checked here.
func (d *Dispatcher) SwitchInput(ctx context.Context, id int, input string) error {
	return d.send(ctx, host.CommandSwitchMonitorInput, host.SwitchMonitorInputArgs{
		MonitorIdx: id,
		Input:      input,
	})
}

func (d *Dispatcher) send(ctx context.Context, name string, args any) error {
	command := host.Command{Name: name, Args: args, Token: d.nextToken()}
	fields := utils.NewLogrusCustomFields(map[string]any{
		"command": command.Name,
		"token":   command.Token,
		"args":    command.Args,
	})

	logrus.WithFields(fields.WithLogID(utils.CommandDispatchedLogID)).Debug("Dispatching command")
	if err := d.host.Invoke(ctx, command); err != nil {
		if errors.Is(err, errs.ErrCommandRejected) {
			logrus.WithFields(fields.WithLogID(utils.CommandRejectedLogID)).WithError(err).Warn("Command rejected")
		} else {
			logrus.WithFields(fields.WithLogID(utils.UnknownLogID)).WithError(err).Warn("Command failed")
		}
		return fmt.Errorf("cant dispatch %s: %w", command.Name, err)
	}

	return nil
}
