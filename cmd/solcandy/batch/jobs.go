package batch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/solcandy/pkg/candy"
	"go.firedancer.io/solcandy/pkg/discovery"
	"go.firedancer.io/solcandy/pkg/keyfmt"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// JobFile is the YAML document read by the batch command.
//
//	rpc: devnet
//	candy_machines:
//	  - key: 4xGR6jwwAhBebU9ugdq7pkzsz7Q1P3Djg72Fby1xmUkA
//	    version: v1
//	  - key: C24whbLeUARPsuiJAkZ41dxrmRKBhqzQqQ6hfLMRY1mD
//	    version: v2
//	    name: devnet v2
type JobFile struct {
	RPC           string    `yaml:"rpc"`
	Commitment    string    `yaml:"commitment"`
	CandyMachines []JobSpec `yaml:"candy_machines"`
}

type JobSpec struct {
	Name    string `yaml:"name"`
	Key     string `yaml:"key"`
	Version string `yaml:"version"`
}

type Job struct {
	Name         string
	CandyMachine candy.CandyMachine
}

func LoadJobFile(r io.Reader) (*JobFile, error) {
	var jf JobFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&jf); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty job file")
		}
		return nil, fmt.Errorf("failed to decode job file: %w", err)
	}
	return &jf, nil
}

// Jobs validates every entry. A missing version defaults to v2.
func (jf *JobFile) Jobs() ([]Job, error) {
	if len(jf.CandyMachines) == 0 {
		return nil, fmt.Errorf("job file lists no candy machines")
	}
	jobs := make([]Job, len(jf.CandyMachines))
	for i, spec := range jf.CandyMachines {
		key, err := keyfmt.ParseKey(spec.Key)
		if err != nil {
			return nil, fmt.Errorf("candy_machines[%d]: %w", i, err)
		}
		version := candy.V2
		if spec.Version != "" {
			if version, err = candy.ParseVersion(spec.Version); err != nil {
				return nil, fmt.Errorf("candy_machines[%d]: %w", i, err)
			}
		}
		jobs[i] = Job{Name: spec.Name, CandyMachine: candy.New(key, version)}
	}
	return jobs, nil
}

// Result is the outcome of one job. Mints is nil when Error is set.
type Result struct {
	Name         string             `json:"name,omitempty"`
	CandyMachine solana.PublicKey   `json:"candyMachine"`
	Version      candy.Version      `json:"version"`
	Creator      *solana.PublicKey  `json:"creator,omitempty"`
	Mints        []solana.PublicKey `json:"mints"`
	Error        string             `json:"error,omitempty"`
	Took         time.Duration      `json:"-"`
}

func (r *Result) Failed() bool {
	return r.Error != ""
}

// Run discovers the mints of all jobs with at most workers queries in
// flight. Jobs do not affect each other: a failure is recorded in its
// Result and the rest carry on. Results are in job order. onDone, if not
// nil, is called once per finished job, possibly concurrently.
func Run(ctx context.Context, q discovery.AccountQuerier, jobs []Job, workers int, onDone func(*Result)) []Result {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			res := &results[i]
			runJob(ctx, q, jobs[i], res)
			if onDone != nil {
				onDone(res)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func runJob(ctx context.Context, q discovery.AccountQuerier, job Job, res *Result) {
	start := time.Now()
	cm := job.CandyMachine
	res.Name = job.Name
	res.CandyMachine = cm.Key
	res.Version = cm.Version
	defer func() { res.Took = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return
	}
	creator, err := cm.Creator()
	if err != nil {
		res.Error = err.Error()
		return
	}
	res.Creator = &creator

	mints, err := discovery.ListMintKeys(ctx, q, cm)
	if err != nil {
		klog.Warningf("Candy machine %s: %s", cm, err)
		res.Error = err.Error()
		return
	}
	res.Mints = mints
}
