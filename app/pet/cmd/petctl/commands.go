package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/dao"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/service"
	"github.com/lk2023060901/xdooria-pet/pkg/app"
	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
)

// CLI 命令执行所需的组件
type CLI struct {
	Pets    *service.PetService
	Mounts  *service.MountService
	DB      *postgres.Client
	Metrics *metrics.PetMetrics
}

type command struct {
	usage   string
	minArgs int
	maxArgs int
	noUser  bool
	run     func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error)
}

func (c command) check(args []string, userID int64) error {
	if len(args) < c.minArgs || len(args) > c.maxArgs {
		return fmt.Errorf("expected %d to %d arguments, got %d", c.minArgs, c.maxArgs, len(args))
	}
	if !c.noUser && userID <= 0 {
		return fmt.Errorf("--user is required")
	}
	return nil
}

var commands = map[string]command{
	"migrate": {
		usage:  "migrate",
		noUser: true,
		run: func(ctx context.Context, cli *CLI, _ int64, _ []string) (any, error) {
			if err := dao.EnsureSchema(ctx, cli.DB); err != nil {
				return nil, err
			}
			return map[string]string{"status": "ok"}, nil
		},
	},
	"hatch": {
		usage:   "-u <user> hatch <creature_id>",
		minArgs: 1, maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			creatureID, err := parseInt32(args[0], "creature_id")
			if err != nil {
				return nil, err
			}
			return cli.Pets.Hatch(ctx, userID, creatureID)
		},
	},
	"feed": {
		usage:   "-u <user> feed <ownership_id> [amount]",
		minArgs: 1, maxArgs: 2,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			amount, err := optionalInt64(args, 1, "amount")
			if err != nil {
				return nil, err
			}
			return cli.Pets.Feed(ctx, userID, id, amount)
		},
	},
	"equip": {
		usage:   "-u <user> equip <ownership_id>",
		minArgs: 1, maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			return cli.Pets.Equip(ctx, userID, id)
		},
	},
	"unequip": {
		usage:   "-u <user> unequip [strict]",
		maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			strict, err := strictFlag(args)
			if err != nil {
				return nil, err
			}
			changed, err := cli.Pets.Unequip(ctx, userID)
			return unequipped(userID, changed, strict, err)
		},
	},
	"grant": {
		usage:   "-u <user> grant <material> <quantity>",
		minArgs: 2, maxArgs: 2,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			quantity, err := parseInt64(args[1], "quantity")
			if err != nil {
				return nil, err
			}
			balance, err := cli.Pets.GrantMaterial(ctx, userID, args[0], quantity)
			return &model.MaterialBalance{UserID: userID, Material: args[0], Quantity: balance}, err
		},
	},
	"balance": {
		usage:   "-u <user> balance <material>",
		minArgs: 1, maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			balance, err := cli.Pets.Balance(ctx, userID, args[0])
			return &model.MaterialBalance{UserID: userID, Material: args[0], Quantity: balance}, err
		},
	},
	"tame-check": {
		usage:   "-u <user> tame-check <ownership_id>",
		minArgs: 1, maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			costs, err := cli.Mounts.CheckTameEligibility(ctx, userID, id)
			return map[string]any{"eligible": err == nil, "costs": costs}, err
		},
	},
	"tame": {
		usage:   "-u <user> tame <ownership_id>",
		minArgs: 1, maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			return cli.Mounts.TameMount(ctx, userID, id)
		},
	},
	"mount-equip": {
		usage:   "-u <user> mount-equip <ownership_id>",
		minArgs: 1, maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			return cli.Mounts.EquipMount(ctx, userID, id)
		},
	},
	"mount-unequip": {
		usage:   "-u <user> mount-unequip [strict]",
		maxArgs: 1,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			strict, err := strictFlag(args)
			if err != nil {
				return nil, err
			}
			changed, err := cli.Mounts.UnequipMount(ctx, userID)
			return unequipped(userID, changed, strict, err)
		},
	},
	"mount-upgrade": {
		usage:   "-u <user> mount-upgrade <ownership_id> <exp>",
		minArgs: 2, maxArgs: 2,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			exp, err := parseInt64(args[1], "exp")
			if err != nil {
				return nil, err
			}
			return cli.Mounts.UpgradeMount(ctx, userID, id, exp)
		},
	},
	"mount-stamina": {
		usage:   "-u <user> mount-stamina <ownership_id> [amount]",
		minArgs: 1, maxArgs: 2,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			amount, err := optionalInt64(args, 1, "amount")
			if err != nil {
				return nil, err
			}
			if amount > math.MaxInt32 || amount < math.MinInt32 {
				return nil, errcode.NewInvalidArgument("amount %d is out of range", amount)
			}
			return cli.Mounts.RestoreMountStamina(ctx, userID, id, int32(amount))
		},
	},
	"mount-check": {
		usage:   "-u <user> mount-check <ownership_id> <ride|upgrade|equip>",
		minArgs: 2, maxArgs: 2,
		run: func(ctx context.Context, cli *CLI, userID int64, args []string) (any, error) {
			id, err := parseInt64(args[0], "ownership_id")
			if err != nil {
				return nil, err
			}
			return cli.Mounts.CheckMountAction(ctx, userID, id, args[1])
		},
	},
}

func parseInt64(s, name string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errcode.NewInvalidArgument("%s must be an integer, got %q", name, s)
	}
	return v, nil
}

func parseInt32(s, name string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, errcode.NewInvalidArgument("%s must be a 32-bit integer, got %q", name, s)
	}
	return int32(v), nil
}

// optionalInt64 缺省时返回 0，由服务使用默认值
func optionalInt64(args []string, i int, name string) (int64, error) {
	if len(args) <= i {
		return 0, nil
	}
	return parseInt64(args[i], name)
}

func strictFlag(args []string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	if args[0] != "strict" {
		return false, errcode.NewInvalidArgument("unknown unequip mode %q", args[0])
	}
	return true, nil
}

// unequipped strict 模式下没有可卸下的对象时返回 NONE_EQUIPPED
func unequipped(userID int64, changed, strict bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if strict && !changed {
		return nil, errcode.NewNoneEquipped(userID)
	}
	return map[string]bool{"changed": changed}, nil
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <command> [args]\n\ncommands:\n", app.AppName)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintf(os.Stderr, "  version\n\nflags:\n%s", fs.FlagUsages())
}
