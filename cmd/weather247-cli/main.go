// Package main provides the weather247-cli command-line tool: quick weather
// lookups against the same providers the server uses, config validation, and
// theme preference management.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	weather247 "github.com/zaheeruldin978/weather247"
	"github.com/zaheeruldin978/weather247/internal/prefstore"
	"github.com/zaheeruldin978/weather247/internal/units"
	"github.com/zaheeruldin978/weather247/internal/version"
	"github.com/zaheeruldin978/weather247/providers"
)

func main() {
	root := &cobra.Command{
		Use:           "weather247-cli",
		Short:         "Weather247 command line tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var country string
	var fahrenheit bool

	currentCmd := &cobra.Command{
		Use:   "current <city>",
		Short: "Show current weather for a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := buildGateway()
			if err != nil {
				return err
			}
			cond, err := gw.CurrentWeather(cmd.Context(), args[0], country, false)
			if err != nil {
				return err
			}
			printConditions(cond, fahrenheit)
			return nil
		},
	}
	currentCmd.Flags().StringVar(&country, "country", "", "ISO country code to disambiguate the city")
	currentCmd.Flags().BoolVarP(&fahrenheit, "fahrenheit", "f", false, "report temperatures in °F")

	var hours int
	forecastCmd := &cobra.Command{
		Use:   "forecast <city>",
		Short: "Show the hourly forecast for a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := buildGateway()
			if err != nil {
				return err
			}
			fc, err := gw.Forecast(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Forecast for %s, %s:\n", fc.City, fc.Country)
			for i, entry := range fc.Entries {
				if i >= hours {
					break
				}
				fmt.Printf("  %s  %5.1f°C  %3d%% RH  %s (rain %.0f%%)\n",
					entry.Time.Format("Mon 15:04"), entry.Temperature, entry.Humidity,
					entry.Description, entry.PrecipProbability)
			}
			return nil
		},
	}
	forecastCmd.Flags().IntVar(&hours, "hours", 24, "number of hourly entries to print")

	compareCmd := &cobra.Command{
		Use:   "compare <city> <city> [city...]",
		Short: "Compare current weather across cities (max 5)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := buildGateway()
			if err != nil {
				return err
			}
			report, err := gw.CompareCities(cmd.Context(), args)
			if err != nil {
				return err
			}
			for city, cond := range report.Comparison {
				fmt.Printf("%-16s %5.1f°C  %s  wind %s %.1f m/s  AQI %d (%s)\n",
					city, cond.Temperature, cond.Description,
					cond.WindCompass, cond.WindSpeed, cond.AQI, cond.AQICategory)
			}
			return nil
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for a city by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := buildGateway()
			if err != nil {
				return err
			}
			result, err := gw.SearchCity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !result.Found {
				fmt.Println("City not found")
				return nil
			}
			c := result.City
			fmt.Printf("%s, %s", c.Name, c.Country)
			if c.State != "" {
				fmt.Printf(" (%s)", c.State)
			}
			fmt.Printf("  lat %.4f lon %.4f\n", c.Coord.Lat, c.Coord.Lon)
			return nil
		},
	}

	var prefsDB string
	themeCmd := &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Get or set the UI theme preference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefstore.NewSQLiteStore(prefsDB)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if len(args) == 0 {
				fmt.Println(store.Get(ctx, prefstore.ThemeKey, "light"))
				return nil
			}
			theme := strings.ToLower(args[0])
			if theme != "light" && theme != "dark" {
				return fmt.Errorf("theme must be light or dark, got %q", args[0])
			}
			store.Set(ctx, prefstore.ThemeKey, theme)
			fmt.Printf("theme set to %s\n", theme)
			return nil
		},
	}
	themeCmd.Flags().StringVar(&prefsDB, "db", "", "path to the preferences database")

	validateCmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a gateway configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := weather247.LoadConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Println("✓ Config is valid")
			if cfg.Providers.OpenWeather.APIKey != "" {
				fmt.Println("  Provider:  openweather")
			}
			if cfg.Providers.OpenMeteo.Enabled {
				fmt.Println("  Provider:  openmeteo")
			}
			backend := cfg.Cache.Backend
			if backend == "" {
				backend = weather247.CacheMemory
			}
			fmt.Printf("  Cache:     %s\n", backend)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.String())
		},
	}

	root.AddCommand(currentCmd, forecastCmd, compareCmd, searchCmd, themeCmd, validateCmd, versionCmd)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildGateway assembles a gateway from environment variables, preferring
// OpenWeather when a key is present and falling back to keyless Open-Meteo.
func buildGateway() (*weather247.Gateway, error) {
	cfg := weather247.Config{}
	if key := os.Getenv("OPENWEATHER_API_KEY"); key != "" {
		cfg.Providers.OpenWeather.APIKey = key
	} else {
		cfg.Providers.OpenMeteo.Enabled = true
	}
	gw, err := weather247.New(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Providers.OpenWeather.APIKey != "" {
		p, err := providers.NewOpenWeather(cfg.Providers.OpenWeather.APIKey, "", "")
		if err != nil {
			return nil, err
		}
		gw.RegisterProvider(p)
	} else {
		p, err := providers.NewOpenMeteo("", "", "")
		if err != nil {
			return nil, err
		}
		gw.RegisterProvider(p)
	}
	return gw, nil
}

func printConditions(cond *providers.CurrentConditions, fahrenheit bool) {
	temp, feels, unit := cond.Temperature, cond.FeelsLike, "°C"
	if fahrenheit {
		temp = units.Round1(units.CelsiusToFahrenheit(temp))
		feels = units.Round1(units.CelsiusToFahrenheit(feels))
		unit = "°F"
	}
	fmt.Printf("%s, %s: %s\n", cond.City, cond.Country, cond.Description)
	fmt.Printf("  Temperature: %.1f%s (feels like %.1f%s)\n", temp, unit, feels, unit)
	fmt.Printf("  Humidity:    %d%%   Pressure: %d hPa\n", cond.Humidity, cond.Pressure)
	fmt.Printf("  Wind:        %.1f m/s %s\n", cond.WindSpeed, cond.WindCompass)
	fmt.Printf("  AQI:         %d (%s)\n", cond.AQI, cond.AQICategory)
}
