package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/movigation/moviesir/internal/catalog"
	"github.com/movigation/moviesir/internal/config"
	"github.com/movigation/moviesir/internal/storage"
)

// dumpMovie is one record of the import file: catalog metadata plus both
// embedding vectors and provider deep links.
type dumpMovie struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Runtime        int            `json:"runtime"`
	Genres         []string       `json:"genres"`
	VoteAverage    float64        `json:"vote_average"`
	VoteCount      int            `json:"vote_count"`
	Popularity     float64        `json:"popularity"`
	Overview       string         `json:"overview"`
	PosterPath     string         `json:"poster_path"`
	ReleaseDate    string         `json:"release_date"`
	Adult          bool           `json:"adult"`
	Providers      []dumpProvider `json:"providers"`
	SemanticVector []float32      `json:"semantic_vector"`
	GraphVector    []float32      `json:"graph_vector"`
}

type dumpProvider struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a movie catalog dump into local storage",
	Long: `Import a movie catalog dump into local storage.

The file is a JSON array of movie records carrying metadata, provider
links, and the precomputed semantic and graph embedding vectors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading dump: %w", err)
		}

		var dump []dumpMovie
		if err := json.Unmarshal(data, &dump); err != nil {
			return fmt.Errorf("parsing dump: %w", err)
		}
		if len(dump) == 0 {
			return fmt.Errorf("dump contains no movies")
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		printStep("Importing %d movies...", len(dump))

		movies := make([]catalog.Movie, len(dump))
		var semIDs, graphIDs []int64
		var semVectors, graphVectors [][]float32
		for i, d := range dump {
			movies[i] = catalog.Movie{
				ID:          d.ID,
				Title:       d.Title,
				Runtime:     d.Runtime,
				Genres:      d.Genres,
				VoteAverage: d.VoteAverage,
				VoteCount:   d.VoteCount,
				Popularity:  d.Popularity,
				Overview:    d.Overview,
				PosterPath:  d.PosterPath,
				ReleaseDate: d.ReleaseDate,
				Adult:       d.Adult,
			}
			if len(d.SemanticVector) > 0 {
				semIDs = append(semIDs, d.ID)
				semVectors = append(semVectors, d.SemanticVector)
			}
			if len(d.GraphVector) > 0 {
				graphIDs = append(graphIDs, d.ID)
				graphVectors = append(graphVectors, d.GraphVector)
			}
		}

		if err := store.InsertMovies(movies); err != nil {
			return fmt.Errorf("inserting movies: %w", err)
		}

		for _, d := range dump {
			if len(d.Providers) == 0 {
				continue
			}
			links := make([]storage.ProviderLink, len(d.Providers))
			for i, p := range d.Providers {
				links[i] = storage.ProviderLink{Provider: p.Provider, URL: p.URL}
			}
			if err := store.SetMovieProviders(d.ID, links); err != nil {
				return fmt.Errorf("setting providers for movie %d: %w", d.ID, err)
			}
		}

		if err := store.InsertVectors(storage.SemanticTable, semIDs, semVectors); err != nil {
			return fmt.Errorf("inserting semantic vectors: %w", err)
		}
		if err := store.InsertVectors(storage.GraphTable, graphIDs, graphVectors); err != nil {
			return fmt.Errorf("inserting graph vectors: %w", err)
		}

		printSuccess("Imported %d movies (%d semantic, %d graph vectors)", len(movies), len(semIDs), len(graphIDs))
		return nil
	},
}
