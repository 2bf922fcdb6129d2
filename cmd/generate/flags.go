package main

import (
	"fmt"
	"strconv"
)

type intListFlag []int

func (i *intListFlag) String() string {
	return fmt.Sprintf("%v", *i)
}

func (i *intListFlag) Set(value string) error {
	val, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*i = append(*i, val)
	return nil
}

type floatListFlag []float64

func (f *floatListFlag) String() string {
	return fmt.Sprintf("%v", *f)
}

func (f *floatListFlag) Set(value string) error {
	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*f = append(*f, val)
	return nil
}
