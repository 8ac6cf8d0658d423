package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/parmesh/parmesh/comm"
	"github.com/parmesh/parmesh/mesh"
	"github.com/parmesh/parmesh/partition"
	"github.com/parmesh/parmesh/simplex"
)

// RunConfig are the parameters of one partitioning run, optionally read from
// a YAML input file.
type RunConfig struct {
	Title       string  `yaml:"Title"`
	Ranks       int     `yaml:"Ranks"`
	GridN       int     `yaml:"GridN"`
	Dim         int     `yaml:"Dim"`
	Overlap     int     `yaml:"Overlap"`
	Partitioner string  `yaml:"Partitioner"` // "metis" or "hash"
	Imbalance   float32 `yaml:"Imbalance"`
}

func (rc *RunConfig) Parse(data []byte) error {
	return yaml.Unmarshal(data, rc)
}

func (rc *RunConfig) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rc.Title)
	fmt.Printf("%d\t\t\t= Ranks\n", rc.Ranks)
	fmt.Printf("%d\t\t\t= GridN\n", rc.GridN)
	fmt.Printf("%d\t\t\t= Dim\n", rc.Dim)
	fmt.Printf("%d\t\t\t= Overlap\n", rc.Overlap)
	fmt.Printf("[%s]\t\t= Partitioner\n", rc.Partitioner)
}

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a generated mesh and build per-rank local meshes",
	Long: `Generates a structured triangle or tetrahedral mesh, deals it out over an
in-process rank group, repartitions it, and builds every rank's
ghost-extended, globally numbered local mesh.`,
	Run: func(cmd *cobra.Command, args []string) {
		rc := &RunConfig{}
		if inputFile, _ := cmd.Flags().GetString("inputFile"); inputFile != "" {
			data, err := os.ReadFile(inputFile)
			if err != nil {
				log.Fatalf("unable to read input file: %v", err)
			}
			if err := rc.Parse(data); err != nil {
				log.Fatalf("unable to parse input file: %v", err)
			}
		}
		if rc.Ranks == 0 {
			rc.Ranks, _ = cmd.Flags().GetInt("ranks")
		}
		if rc.GridN == 0 {
			rc.GridN, _ = cmd.Flags().GetInt("n")
		}
		if rc.Dim == 0 {
			rc.Dim, _ = cmd.Flags().GetInt("dim")
		}
		if rc.Overlap == 0 {
			rc.Overlap, _ = cmd.Flags().GetInt("overlap")
		}
		if rc.Partitioner == "" {
			rc.Partitioner, _ = cmd.Flags().GetString("partitioner")
		}
		rc.Print()
		if err := runPartition(rc); err != nil {
			log.Fatal(err)
		}
	},
}

func runPartition(rc *RunConfig) error {
	var elems []simplex.Simplex
	var coords *mesh.Float64Data
	switch rc.Dim {
	case 2:
		elems = mesh.UnitSquareTriangles(rc.GridN)
		coords = mesh.UnitSquareCoords(rc.GridN)
	case 3:
		elems = mesh.UnitCubeTets(rc.GridN)
	default:
		return fmt.Errorf("unsupported mesh dimension %d", rc.Dim)
	}
	log.Printf("generated %d elements of dimension %d", len(elems), rc.Dim)

	np := rc.Ranks
	stats := make([]string, np)
	err := comm.Run(np, func(r *comm.Rank) error {
		local := mesh.Deal(elems, np, r.ID())

		var vd mesh.MeshData
		if coords != nil {
			lo, hi := partition.Span(coords.Size(), np, r.ID())
			rows := make([]float64, 0, (hi-lo)*coords.Stride())
			for i := lo; i < hi; i++ {
				rows = append(rows, coords.Row(i)...)
			}
			vd = mesh.NewFloat64Data(coords.Stride(), rows)
		}

		m := mesh.New(rc.Dim, local, vd, nil, r)
		switch rc.Partitioner {
		case "hash":
			m.RepartitionByHash()
		default:
			mp := partition.DefaultMetis()
			mp.Verbose = true
			if rc.Imbalance != 0 {
				mp.ImbalanceFactor = rc.Imbalance
			}
			if err := m.Repartition(mp); err != nil {
				return err
			}
		}

		lm, err := m.LocalMesh(rc.Overlap)
		if err != nil {
			return err
		}
		owned := m.NumElements()
		ghosts := lm.Faces[rc.Dim].Size() - owned
		stats[r.ID()] = fmt.Sprintf("rank %d: %d owned, %d ghost, %d vertices, %d codim-1 faces",
			r.ID(), owned, ghosts, lm.Faces[0].Size(), lm.Faces[rc.Dim-1].Size())
		return nil
	})
	if err != nil {
		return err
	}
	for _, s := range stats {
		fmt.Println(s)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(partitionCmd)
	partitionCmd.Flags().Int("ranks", 4, "number of in-process ranks")
	partitionCmd.Flags().Int("n", 16, "grid resolution per axis")
	partitionCmd.Flags().Int("dim", 2, "mesh dimension, 2 or 3")
	partitionCmd.Flags().Int("overlap", 1, "ghost layer depth")
	partitionCmd.Flags().String("partitioner", "metis", "partitioner: metis or hash")
	partitionCmd.Flags().String("inputFile", "", "YAML run configuration")
}
