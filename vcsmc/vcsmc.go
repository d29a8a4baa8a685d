/*

Vcsmc estimates a variational lower bound (ELBO) on the marginal
likelihood of aligned nucleotide sequences under a continuous-time
Markov substitution model. The bound is computed by a combinatorial
sequential Monte Carlo sampler over phylogenetic tree topologies and
is maximized with respect to the substitution model parameters and
the per-particle branch lengths.

The basic usage of vcsmc looks like this:

	vcsmc alignment.fst

, this will run 16 particles with a default optimizer (LBFGS-B).

You can change the number of particles and the optimizer:

	vcsmc -K 128 -method simplex alignment.fst

To see all the options run:

	vcsmc -h

*/
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"github.com/phylo-smc/vcsmc/bio"
	"github.com/phylo-smc/vcsmc/checkpoint"
	"github.com/phylo-smc/vcsmc/optimize"
	"github.com/phylo-smc/vcsmc/smc"
	"github.com/phylo-smc/vcsmc/subst"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = "branch: " + gitbranch + ", revision: " + githash + ", build time: " + buildstamp

// Logger settings.
var log = logging.MustGetLogger("vcsmc")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("vcsmc", "variational combinatorial SMC for phylogenetic inference").Version(version)

	// input alignment
	alignmentFileName = app.Arg("alignment", "sequence alignment").Required().ExistingFile()

	// sampler parameters
	nParticles = app.Flag("particles", "number of particles").Short('K').Default("16").Int()
	noOptBrLen = app.Flag("nobrlen", "don't optimize branch lengths").Bool()

	// optimizer parameters
	randomize  = app.Flag("randomize", "use uniformly distributed random starting point").Bool()
	iterations = app.Flag("iter", "number of iterations").Default("200").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	method     = app.Flag("method", "optimization method to use "+
		"(lbfgsb: limited-memory Broyden–Fletcher–Goldfarb–Shanno with bounding constraints, "+
		"simplex: downhill simplex, "+
		"annealing: simulated annealing, "+
		"mh: Metropolis-Hastings, "+
		"none: just compute the lower bound, no optimization"+
		")").Default("lbfgsb").String()

	// mcmc parameters
	accept = app.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF   = app.Flag("log", "write log to a file").String()
	outF      = app.Flag("out", "write optimization trajectory to a file").String()
	startF    = app.Flag("start", "read start position from the trajectory or JSON file").ExistingFile()
	checkF    = app.Flag("checkpoint", "checkpoint database filename").String()
	checkSec  = app.Flag("checkpointseconds", "checkpoint save period in seconds").Default("30").Float64()
	plotBaseF = app.Flag("plot", "write ELBO trace and Q matrix plots with the given prefix").String()
	logLevel  = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// getOptimizerFromString returns an optimizer from a string.
func getOptimizerFromString(method string, accept int) (optimize.Optimizer, error) {
	switch method {
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "simplex":
		return optimize.NewDS(), nil
	case "mh":
		chain := optimize.NewMH(false, 0)
		chain.AccPeriod = accept
		return chain, nil
	case "annealing":
		chain := optimize.NewMH(true, 0)
		chain.AccPeriod = accept
		return chain, nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, errors.New("unknown optimization method")
}

// lastLine returns the last line of a file content.
func lastLine(fn string) (line string, err error) {
	f, err := os.Open(fn)
	if err != nil {
		return line, err
	}
	defer f.Close()
	return lastLineReader(f)
}

// lastLineReader returns the last non-empty line of a reader content.
func lastLineReader(r io.Reader) (line string, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if l := strings.TrimSpace(scanner.Text()); l != "" {
			line = l
		}
	}
	return line, scanner.Err()
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "vcsmc")
	logging.SetLevel(level, "optimize")
	logging.SetLevel(level, "smc")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	rand.Seed(*seed)
	if *nThreads > 0 {
		runtime.GOMAXPROCS(*nThreads)
	}

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := run()
	summary.NThreads = effectiveNThreads
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}

// run performs the training and returns the summary.
func run() (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{}

	fastaFile, err := os.Open(*alignmentFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer fastaFile.Close()

	seqs, err := bio.ParseFasta(fastaFile)
	if err != nil {
		log.Fatal(err)
	}

	ali, err := bio.NewAlignment(seqs)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Read alignment of %d taxa, %d positions", ali.NTaxa(), ali.Length())

	model := subst.NewModel(bio.NAlphabet)
	sampler, err := smc.NewSampler(ali, model, *nParticles, *seed)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Using %d particles, %d coalescent steps", *nParticles, ali.NTaxa()-1)

	obj := smc.NewObjective(sampler)
	if !*noOptBrLen {
		log.Info("Will optimize branch lengths")
		obj.SetOptimizeBranchLengths()
	} else {
		log.Info("Will not optimize branch lengths")
	}
	par := obj.GetFloatParameters()
	log.Infof("Objective has %d parameters.", len(par))

	if *startF != "" {
		l, err := lastLine(*startF)
		if err == nil {
			err = par.ReadLine(l)
		}
		if err != nil {
			log.Debug("Reading start file as JSON")
			err2 := par.ReadFromJSON(*startF)
			if err2 != nil {
				log.Error("Error reading start position from JSON:", err2)
				log.Fatal("Error reading start position from trajectory file:", err)
			}
		}
		if !par.InRange() {
			log.Fatal("Initial parameters are not in the range")
		}
	} else if *randomize {
		log.Info("Using uniform (in the boundaries) random starting point")
		par.Randomize()
	}

	// checkpoint restore
	var db *bolt.DB
	var chk *checkpoint.CheckpointIO
	if *checkF != "" {
		db, err = bolt.Open(*checkF, 0666, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint database:", err)
		}
		defer db.Close()
		chk = checkpoint.NewCheckpointIO(db, []byte("training"), *checkSec)
		data, err := chk.GetParameters()
		if err != nil {
			log.Error("Error reading checkpoint:", err)
		} else if data != nil && !data.Final {
			for _, p := range par {
				if v, ok := data.Parameters[p.Name()]; ok {
					p.Set(v)
				}
			}
			log.Noticef("Restored parameters from checkpoint (iter=%d)", data.Iter)
		}
	}

	f := os.Stdout
	if *outF != "" {
		f, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer f.Close()
	}

	opt, err := getOptimizerFromString(*method, *accept)
	if err != nil {
		log.Fatal("Unknown optimization method:", *method)
	}
	log.Infof("Using %s optimization.", *method)

	opt.SetOutput(f)
	opt.SetOptimizable(obj)
	opt.SetReportPeriod(*report)
	opt.WatchSignals(os.Interrupt, syscall.SIGTERM)
	if chk != nil {
		opt.SetCheckpointIO(chk)
	}

	opt.Run(*iterations)
	summary.Optimizer = opt.Summary()

	// recompute the lower bound at the best parameters so the
	// outputs below correspond to the maximum
	if maxLPar := opt.GetMaxLParameters(); maxLPar != nil {
		if err := par.SetValues(maxLPar); err != nil {
			log.Error(err)
		}
	}
	elbo := obj.Likelihood()
	res := obj.LastResult()
	if res == nil {
		log.Fatal("No sampler result available")
	}
	log.Noticef("Final ELBO: %v", elbo)

	summary.Elbo = elbo
	summary.QMatrix = denseToSlices(model.Q())
	summary.StationaryProbs = model.StationaryProbs()
	summary.LeftBranches = sampler.LeftBranches()
	summary.RightBranches = sampler.RightBranches()
	summary.JumpChains = res.JumpChains

	if chk != nil {
		data := &checkpoint.CheckpointData{
			Parameters: make(map[string]float64, len(par)),
			Elbo:       elbo,
			Iter:       *iterations,
			Final:      true,
		}
		for _, p := range par {
			data.Parameters[p.Name()] = p.Get()
		}
		if err := chk.Save(data); err != nil {
			log.Error("Error saving final checkpoint:", err)
		}
	}

	if *plotBaseF != "" {
		if err := plotTrajectory(opt.Trajectory(), *plotBaseF+"elbo.png"); err != nil {
			log.Error("Error plotting ELBO trace:", err)
		}
		if err := plotQMatrix(model.Q(), *plotBaseF+"qmatrix.png"); err != nil {
			log.Error("Error plotting Q matrix:", err)
		}
	}

	endTime := time.Now()

	deltaT := endTime.Sub(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}
