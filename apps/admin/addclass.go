package main

import (
	"context"

	"github.com/smartclassroom/backend/core/roster"
)

func (cli *commandLine) addClass(grade, section string, capacity int) error {
	class, err := cli.rosterSvc.CreateClass(context.Background(), roster.NewClass{
		Grade:    grade,
		Section:  section,
		Capacity: capacity,
	})
	if err != nil {
		return err
	}
	logger.Printf("class %s%s created (id: %d)\n", class.Grade, class.Section, class.ID)
	return nil
}
