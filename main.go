package main

import "github.com/coppinaphil/job-scraper/cmd"

func main() {
	cmd.Execute()
}
