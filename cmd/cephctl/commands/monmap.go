package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/cephmsgr/internal/cliutil"
	"github.com/marmos91/cephmsgr/internal/frame"
	"github.com/marmos91/cephmsgr/internal/msg"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/ceph"
	"github.com/marmos91/cephmsgr/pkg/monmap"
	"github.com/marmos91/cephmsgr/pkg/store"
)

var (
	monmapAddr    string
	monmapTimeout time.Duration
	monmapOutput  string
	monmapForce   bool
)

var monmapCmd = &cobra.Command{
	Use:   "monmap",
	Short: "Fetch and show the cluster's MonMap",
	Long: `Dial a monitor, complete the CephX handshake, and decode the MonMap
message the monitor sends immediately afterward. The first time cephctl
sees a cluster's fsid it asks for trust-on-first-use confirmation before
caching the MonMap in pkg/store; later runs skip the prompt while the
cached map's epoch is at least the live one's, and re-prompt only when the
live map's epoch is newer.`,
	RunE: runMonMap,
}

func init() {
	monmapCmd.Flags().StringVar(&monmapAddr, "addr", "", "monitor address (host:port); defaults to the first configured monitor")
	monmapCmd.Flags().DurationVar(&monmapTimeout, "timeout", 10*time.Second, "dial + handshake + fetch timeout")
	monmapCmd.Flags().StringVarP(&monmapOutput, "output", "o", "table", "Output format (table|json)")
	monmapCmd.Flags().BoolVar(&monmapForce, "force", false, "skip the trust-on-first-use prompt")
}

type monmapTable monmap.MonMap

func (t monmapTable) Headers() []string { return []string{"RANK", "NAME", "ADDRESSES"} }
func (t monmapTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Ranks))
	for rank, name := range t.Ranks {
		info, ok := t.MonInfo[name]
		addrs := "-"
		if ok {
			addrs = formatAddrs(info.PublicAddrs)
		}
		rows = append(rows, []string{fmt.Sprint(rank), name, addrs})
	}
	return rows
}

func formatAddrs(addrs []wireaddr.EntityAddress) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		if a.Address == nil {
			parts[i] = fmt.Sprintf("%s/%d", a.Type, a.Nonce)
			continue
		}
		parts[i] = fmt.Sprintf("%s:%d/%d", a.Address.IP, a.Address.Port, a.Nonce)
	}
	return strings.Join(parts, ",")
}

func runMonMap(cmd *cobra.Command, args []string) error {
	format, err := cliutil.ParseFormat(monmapOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := monmapAddr
	if addr == "" {
		if len(cfg.Cluster.MonitorAddresses) == 0 {
			return fmt.Errorf("no monitor address given (--addr or cluster.monitor_addresses)")
		}
		addr = cfg.Cluster.MonitorAddresses[0]
	}

	entity, err := entityFromConfig(cfg)
	if err != nil {
		return err
	}
	keyring, err := ceph.LoadKeyring(cfg.Keyring.Path, entity)
	if err != nil {
		return fmt.Errorf("loading keyring: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), monmapTimeout)
	defer cancel()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer st.Close()

	client, err := ceph.Dial(ctx, addr, wireaddr.EntityTypeMon, ceph.Config{
		Entity:       entity,
		Keyring:      keyring,
		SupportRev21: cfg.Cluster.SupportRev21,
		DialTimeout:  monmapTimeout,
		NonceStore:   st,
	}, nil)
	if err != nil {
		return fmt.Errorf("handshake with %s: %w", addr, err)
	}
	defer client.Close()

	mm, err := fetchMonMap(client)
	if err != nil {
		return err
	}

	if err := confirmAndCacheMonMap(ctx, st, mm, monmapForce); err != nil {
		return err
	}

	return cliutil.Print(cmd.OutOrStdout(), format, monmapTable(mm))
}

// fetchMonMap reads one frame from client and decodes it as a Message
// frame carrying a MonMap payload, failing on any other tag -- the
// monitor sends this unsolicited immediately after ServerIdent, before
// any application request.
func fetchMonMap(client *ceph.Client) (monmap.MonMap, error) {
	f, err := client.RecvFrame()
	if err != nil {
		return monmap.MonMap{}, fmt.Errorf("reading mon_map: %w", err)
	}
	if f.Tag != frame.TagMessage {
		return monmap.MonMap{}, fmt.Errorf("reading mon_map: got frame tag %v, want %v", f.Tag, frame.TagMessage)
	}
	env, err := msg.DecodeEnvelope(f)
	if err != nil {
		return monmap.MonMap{}, fmt.Errorf("decoding mon_map envelope: %w", err)
	}
	mm, err := monmap.DecodeMonMap(env.Front)
	if err != nil {
		return monmap.MonMap{}, fmt.Errorf("decoding mon_map: %w", err)
	}
	return mm, nil
}

func confirmAndCacheMonMap(ctx context.Context, st *store.Store, mm monmap.MonMap, force bool) error {
	fsid := mm.Fsid.String()

	cached, ok, err := st.CachedMonMap(ctx, fsid)
	if err != nil {
		return fmt.Errorf("reading cached monmap: %w", err)
	}
	if ok && cached.Epoch >= mm.Epoch {
		return nil
	}

	if !force {
		label := fmt.Sprintf("Trust monitor map for cluster %s (epoch %d, %d monitors)?", fsid, mm.Epoch, len(mm.Ranks))
		confirmed, err := cliutil.ConfirmTOFU(label)
		if err != nil {
			return fmt.Errorf("confirming monmap: %w", err)
		}
		if !confirmed {
			return fmt.Errorf("monmap for cluster %s not trusted, not caching", fsid)
		}
	}

	if err := st.CacheMonMap(ctx, fsid, mm); err != nil {
		return fmt.Errorf("caching monmap: %w", err)
	}
	return nil
}
